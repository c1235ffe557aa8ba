package bootstrap

import (
	"fmt"
	"log"

	"github.com/RengaN02/api.ss13.org/internal/config"
	"github.com/RengaN02/api.ss13.org/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// rateLimitMiddlewares holds rate limiting middlewares for the two public
// endpoints.
type rateLimitMiddlewares struct {
	login    gin.HandlerFunc
	callback gin.HandlerFunc
}

// setupRateLimiting configures rate limiting based on configuration.
// Returns the middlewares and an optional Redis client that needs cleanup on
// shutdown.
func setupRateLimiting(cfg *config.Config) (rateLimitMiddlewares, *redis.Client, error) {
	noOpMiddleware := func(c *gin.Context) { c.Next() }

	if !cfg.EnableRateLimit {
		return rateLimitMiddlewares{
			login:    noOpMiddleware,
			callback: noOpMiddleware,
		}, nil, nil
	}

	log.Printf("Rate limiting enabled (store: %s)", cfg.RateLimitStore)

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	var sharedRedisClient *redis.Client

	if storeType == middleware.RateLimitStoreRedis {
		var err error
		sharedRedisClient, err = middleware.CreateRedisClient(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
		)
		if err != nil {
			return rateLimitMiddlewares{}, nil, err
		}
		log.Printf("Redis rate limiting configured: %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
	} else {
		log.Printf("In-memory rate limiting configured (single instance only)")
	}

	createLimiter := func(requestsPerMinute int, endpoint string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			RedisClient:       sharedRedisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter for %s: %w", endpoint, err)
		}
		return limiter, nil
	}

	login, err := createLimiter(cfg.LoginRateLimit, "/auth/login")
	if err != nil {
		return rateLimitMiddlewares{}, nil, err
	}
	callback, err := createLimiter(cfg.CallbackRateLimit, "/auth/callback")
	if err != nil {
		return rateLimitMiddlewares{}, nil, err
	}

	return rateLimitMiddlewares{login: login, callback: callback}, sharedRedisClient, nil
}
