package handler

import (
	"context"
	"net/http"
	"time"

	"stacks-payment-gateway/internal/core/ports"
	"stacks-payment-gateway/internal/worker"

	"github.com/gin-gonic/gin"
)

// OpsDeps carries the dependencies of the operational endpoints.
type OpsDeps struct {
	Worker         *worker.Worker
	HealthCheckers []ports.HealthChecker
}

// SetupRouter builds the operational HTTP surface of the worker process:
// liveness of the backing stores and observability of the delivery queue.
// The merchant-facing API lives in a separate service.
func SetupRouter(deps OpsDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", healthHandler(deps.HealthCheckers))
	router.GET("/status", statusHandler(deps.Worker))

	return router
}

func healthHandler(checkers []ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checkers))
		for _, checker := range checkers {
			if err := checker.Ping(ctx); err != nil {
				deps[checker.Name()] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[checker.Name()] = "healthy"
		}

		c.JSON(status, gin.H{"dependencies": deps})
	}
}

func statusHandler(w *worker.Worker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := w.Status(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
