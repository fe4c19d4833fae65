package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/meghashyamc/pagesearch/services/index"
	"github.com/meghashyamc/pagesearch/validation"
)

type IndexResponse struct {
	IDs []string `json:"ids"`
}

type CountResponse struct {
	Indexed uint64 `json:"indexed"`
	Stored  int    `json:"stored"`
}

type DeleteRequest struct {
	ID string `uri:"id" validate:"required,valid_document_id"`
}

func SetupIndex(router gin.IRouter, logger logger.Logger, searchDB searchdb.DB, kvDB kvdb.DB, validator *validation.Validator) {
	service := index.New(logger, searchDB, kvDB)
	router.POST("/index", handleIndex(service, logger, validator))
	router.DELETE("/index/:id", handleDelete(service, logger, validator))
	router.GET("/index/count", handleCount(service, logger))

}

func handleIndex(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := index.IndexRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from index request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusBadRequest, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusBadRequest, []string{err.Error()})
			return
		}

		ids, err := service.Add(c.Request.Context(), request.Documents)
		if err != nil {
			logger.Error("could not index documents", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, IndexResponse{IDs: ids}, http.StatusCreated, nil)
	}
}

func handleDelete(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := DeleteRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract document id", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusBadRequest, []string{"failed to extract request path parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusBadRequest, []string{err.Error()})
			return
		}

		if err := service.Remove(c.Request.Context(), request.ID); err != nil {
			statusCode := http.StatusInternalServerError
			if errors.Is(err, index.ErrDocumentNotFound) {
				statusCode = http.StatusNotFound
			}
			logger.Warn("could not delete document", "id", request.ID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, statusCode, []string{err.Error()})
			return
		}

		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}

func handleCount(service *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		indexed, err := service.Count()
		if err != nil {
			logger.Error("could not count indexed documents", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		stored, err := service.StoredCount()
		if err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, CountResponse{Indexed: indexed, Stored: stored}, http.StatusOK, nil)
	}
}
