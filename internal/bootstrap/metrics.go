package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/RengaN02/api.ss13.org/internal/cache"
	"github.com/RengaN02/api.ss13.org/internal/config"
	"github.com/RengaN02/api.ss13.org/internal/metrics"
)

// initializeMetrics returns the configured metrics recorder.
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeMetricsCache creates the count cache backing the gauge update
// job. Returns nil when gauge updates are disabled.
func initializeMetricsCache(cfg *config.Config) (cache.CountCache, error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil
	}

	switch cfg.MetricsCacheType {
	case config.MetricsCacheTypeRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		c, err := cache.NewRueidisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "metrics:")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis metrics cache: %w", err)
		}
		log.Printf("Metrics cache: redis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)
		return c, nil
	default:
		log.Println("Metrics cache: memory (single instance only)")
		return cache.NewMemoryCache(), nil
	}
}
