package bootstrap

import (
	"log"
	"net/http"

	"github.com/RengaN02/api.ss13.org/internal/config"
	"github.com/RengaN02/api.ss13.org/internal/handlers"
	"github.com/RengaN02/api.ss13.org/internal/metrics"
	"github.com/RengaN02/api.ss13.org/internal/middleware"
	"github.com/RengaN02/api.ss13.org/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter builds the gin engine with middleware and routes.
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	authHandler *handlers.AuthHandler,
	recorder metrics.Recorder,
	limiters rateLimitMiddlewares,
) *gin.Engine {
	setupGinMode(cfg)

	r := gin.New()
	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", createHealthCheckHandler(db))

	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	auth := r.Group("/auth")
	{
		auth.GET("/login", limiters.login, authHandler.Login)
		auth.GET("/callback", limiters.callback, authHandler.Callback)
	}

	return r
}

// createHealthCheckHandler creates the health check endpoint handler.
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration.
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
}
