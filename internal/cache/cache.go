package cache

import (
	"context"
	"fmt"
	"summoner-tracker/internal/config"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TTLCache is a small expiring key/value store. Implementations must be
// safe for concurrent use.
type TTLCache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// TTL reports the remaining lifetime of key, or ErrCacheMiss.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type CacheError string

func (e CacheError) Error() string { return string(e) }

const ErrCacheMiss CacheError = "cache miss"

// New picks the backend named by CACHE_BACKEND. client is nil when Redis
// is not configured.
func New(cfg *config.Config, client *redis.Client, logger zerolog.Logger) (TTLCache, error) {
	switch cfg.Redis.CacheBackend {
	case "", "memory":
		logger.Info().Str("backend", "memory").Msg("ttl cache ready")
		return NewMemoryCache(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis cache backend selected but REDIS_ADDR is empty")
		}
		logger.Info().Str("backend", "redis").Msg("ttl cache ready")
		return NewRedisCache(client, "summoner:cache"), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Redis.CacheBackend)
	}
}
