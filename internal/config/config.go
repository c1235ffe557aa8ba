package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Metrics cache type constants
const (
	MetricsCacheTypeMemory = "memory"
	MetricsCacheTypeRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Authentication request settings
	FreshnessWindow time.Duration // max age of a pending request (default: 2h)

	// Identity provider
	ProviderName         string
	ProviderClientID     string
	ProviderClientSecret string
	ProviderRedirectURL  string
	ProviderAuthorizeURL string
	ProviderTokenURL     string
	ProviderIdentityURL  string
	ProviderScopes       []string
	ProviderTimeout      time.Duration // per-call deadline (default: 15s)

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	LoginRateLimit           int    // requests per minute
	CallbackRateLimit        int    // requests per minute
	RateLimitCleanupInterval time.Duration

	// Redis (rate limiting and metrics cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheType           string // "memory" or "redis"

	// Audit logging
	EnableAuditLogging bool
	AuditLogBufferSize int
	AuditLogRetention  time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "auth.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnvBool("IS_PRODUCTION", false),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		FreshnessWindow: getEnvDuration("FRESHNESS_WINDOW", 2*time.Hour),

		ProviderName:         getEnv("PROVIDER_NAME", "discord"),
		ProviderClientID:     getEnv("PROVIDER_CLIENT_ID", ""),
		ProviderClientSecret: getEnv("PROVIDER_CLIENT_SECRET", ""),
		ProviderRedirectURL:  getEnv("PROVIDER_REDIRECT_URL", ""),
		ProviderAuthorizeURL: getEnv("PROVIDER_AUTHORIZE_URL", ""),
		ProviderTokenURL:     getEnv("PROVIDER_TOKEN_URL", ""),
		ProviderIdentityURL:  getEnv("PROVIDER_IDENTITY_URL", ""),
		ProviderScopes:       getEnvSlice("PROVIDER_SCOPES", []string{"identify"}),
		ProviderTimeout:      getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", false),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", "memory"),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 30),
		CallbackRateLimit:        getEnvInt("CALLBACK_RATE_LIMIT", 10),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 10*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 30*time.Second),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", MetricsCacheTypeMemory),

		EnableAuditLogging: getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 30*24*time.Hour),
	}
}

// Validate checks that the configuration is usable before startup.
func (c *Config) Validate() error {
	if c.ProviderClientID == "" || c.ProviderClientSecret == "" {
		return errors.New("PROVIDER_CLIENT_ID and PROVIDER_CLIENT_SECRET are required")
	}
	if c.ProviderRedirectURL == "" {
		return errors.New("PROVIDER_REDIRECT_URL is required")
	}
	if c.DatabaseDriver != "sqlite" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %s", c.DatabaseDriver)
	}
	if c.FreshnessWindow <= 0 {
		return errors.New("FRESHNESS_WINDOW must be positive")
	}
	if c.EnableRateLimit && c.RateLimitStore == "redis" && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required when RATE_LIMIT_STORE=redis")
	}
	if c.MetricsEnabled && c.MetricsCacheType == MetricsCacheTypeRedis && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required when METRICS_CACHE_TYPE=redis")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
