package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned when a key does not exist or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// CountCache caches gauge counts between database polls so that multiple
// instances sharing a Redis backend do not all hit the database on every
// update tick.
type CountCache interface {
	Get(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
	Health(ctx context.Context) error
}

// GetWithFetch is a cache-aside helper: on miss it calls fetch, stores the
// result with the given TTL, and returns it.
func GetWithFetch(
	ctx context.Context,
	c CountCache,
	key string,
	ttl time.Duration,
	fetch func(ctx context.Context) (int64, error),
) (int64, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return 0, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}
