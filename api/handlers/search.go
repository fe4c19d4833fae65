package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/meghashyamc/pagesearch/paginator"
	"github.com/meghashyamc/pagesearch/services/search"
	"github.com/meghashyamc/pagesearch/validation"
)

// deprecatedQueryParam was the name of the q parameter in older clients.
const deprecatedQueryParam = "query"

func SetupSearch(router gin.IRouter, logger logger.Logger, searchDB searchdb.DB, kvDB kvdb.DB, validator *validation.Validator, cfg search.Config) {
	service := search.New(logger, searchDB, kvDB, validator, cfg)
	router.GET("/search", handleSearch(service, logger))

}

func handleSearch(service *search.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := search.ListRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			err = bindQueryError(c, err)
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusCodeForSearchError(err), []string{err.Error()})
			return
		}
		applyDeprecatedQueryParam(c, logger, &request)

		envelope, err := service.List(c.Request.Context(), request)
		if err != nil {
			statusCode := statusCodeForSearchError(err)
			if statusCode == http.StatusInternalServerError {
				logger.Error("search failed", "err", err.Error())
			} else {
				logger.Warn("could not serve search request", "status", statusCode, "err", err.Error())
			}
			c.Abort()
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		c.Header(HeaderPaginationTotalCount, strconv.Itoa(totalCount(envelope)))
		writeResponse(c, envelope, http.StatusOK, nil)
	}
}

// applyDeprecatedQueryParam reads the query from the deprecated parameter when q is absent.
func applyDeprecatedQueryParam(c *gin.Context, logger logger.Logger, request *search.ListRequest) {
	if _, ok := c.GetQuery("q"); ok {
		return
	}
	if query, ok := c.GetQuery(deprecatedQueryParam); ok {
		logger.Warn("request parameter is deprecated, use q instead", "deprecated", deprecatedQueryParam)
		request.Query = query
	}
}

// bindQueryError reports the parameter that could not be bound as an invalid query.
func bindQueryError(c *gin.Context, err error) error {
	if perPage, ok := c.GetQuery("per_page"); ok {
		if _, convErr := strconv.Atoi(perPage); convErr != nil {
			err = fmt.Errorf("value of field 'per_page' is not an integer: %w", convErr)
		}
	}
	return &search.InvalidQueryError{Err: err}
}

func statusCodeForSearchError(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, paginator.ErrInvalidPage):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func totalCount(envelope *search.Envelope) int {
	if envelope.Pagination != nil {
		return envelope.Pagination.Count
	}
	return len(envelope.Objects)
}
