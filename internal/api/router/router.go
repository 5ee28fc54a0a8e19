// Package router assembles the Gin engine: middleware, health and metrics
// endpoints, and the versioned API routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lawvault/lawvault/internal/api/handler"
	"github.com/lawvault/lawvault/internal/metrics"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "lawvault",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	jobHandler := handler.NewJobHandler(deps)
	statsHandler := handler.NewStatsHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// GET /api/v1/stats - Queue and archive statistics
		v1.GET("/stats", statsHandler.GetStats)

		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Enqueue a job
			jobs.POST("", jobHandler.EnqueueJob)

			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:id - Get job details and result history
			jobs.GET("/:id", jobHandler.GetJob)
		}
	}

	return r
}
