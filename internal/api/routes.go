package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kurihiro0119/orthopairs/internal/metrics"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, reg *metrics.Registry, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger(logger))
	router.Use(Metrics(reg))

	// Health check
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})))

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/species", handler.ListSpecies)

		species := v1.Group("/species/:species")
		{
			species.GET("/homologs/:protein", handler.GetProteinHomologs)
			species.GET("/genes/:gene", handler.GetGeneProteins)
			species.GET("/names/:accession", handler.GetGeneName)
		}
	}

	return router
}
