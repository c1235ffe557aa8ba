package bootstrap

import (
	"net/http"

	"github.com/RengaN02/api.ss13.org/internal/cache"
	"github.com/RengaN02/api.ss13.org/internal/config"
	"github.com/RengaN02/api.ss13.org/internal/handlers"
	"github.com/RengaN02/api.ss13.org/internal/metrics"
	"github.com/RengaN02/api.ss13.org/internal/provider"
	"github.com/RengaN02/api.ss13.org/internal/services"
	"github.com/RengaN02/api.ss13.org/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	MetricsCache         cache.CountCache
	RateLimitRedisClient *redis.Client
	Provider             *provider.Client

	// Services
	AuditService     *services.AuditService
	HandshakeService *services.HandshakeService

	// HTTP
	AuthHandler *handlers.AuthHandler
	Router      *gin.Engine
	Server      *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, cache and the provider
// client.
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, err = initializeMetricsCache(app.Config)
	if err != nil {
		return err
	}

	app.Provider, err = initializeProvider(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.AuditService = services.NewAuditService(
		app.DB,
		app.Config.EnableAuditLogging,
		app.Config.AuditLogBufferSize,
	)

	app.HandshakeService = services.NewHandshakeService(
		app.DB,
		app.Provider,
		app.AuditService,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router and server
func (app *Application) initializeHTTPLayer() error {
	app.AuthHandler = handlers.NewAuthHandler(app.HandshakeService)

	limiters, redisClient, err := setupRateLimiting(app.Config)
	if err != nil {
		return err
	}
	app.RateLimitRedisClient = redisClient

	app.Router = setupRouter(app.Config, app.DB, app.AuthHandler, app.MetricsRecorder, limiters)
	app.Server = createHTTPServer(app.Config, app.Router)

	return nil
}
