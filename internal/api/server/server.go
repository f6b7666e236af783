// Package server wires the gin router for the orchestrator's HTTP
// surface (SPEC_FULL.md 6): scenario submission, scenario/task queries,
// queue depth, and the Prometheus scrape endpoint.
package server

import (
	"github.com/gin-gonic/gin"

	"go-tempo/internal/api/handler"
	"go-tempo/internal/metrics"
)

// New builds the router. metrics may be nil, in which case /metrics is
// not mounted.
func New(h *handler.Handler, mc *metrics.Collector) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api/v1")
	{
		api.POST("/scenarios", h.SubmitScenario)
		api.GET("/scenarios/:id", h.GetScenario)
		api.GET("/tasks/:id", h.GetTask)
		api.GET("/queues/:service/depth", h.QueueDepth)
	}

	if mc != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	return router
}
