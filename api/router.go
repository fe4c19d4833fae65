package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/pagesearch/api/handlers"
	"github.com/meghashyamc/pagesearch/config"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/meghashyamc/pagesearch/services/search"
	"github.com/meghashyamc/pagesearch/validation"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, cfg *config.Config, searchDB searchdb.DB, kvDB kvdb.DB, validator *validation.Validator) {
	router.GET("/health", health())

	handlers.SetupIndex(router, logger, searchDB, kvDB, validator)
	handlers.SetupSearch(router, logger, searchDB, kvDB, validator, search.ConfigFrom(cfg))

}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter(logger logger.Logger) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())

	return router
}
