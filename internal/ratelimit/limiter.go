package ratelimit

import (
	"context"
	"fmt"
	"summoner-tracker/internal/config"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// CounterStore increments the counter for key within the window starting
// at windowStart and returns the new count. A new window starts at zero.
type CounterStore interface {
	Incr(ctx context.Context, key string, windowStart time.Time, window time.Duration) (int64, error)
}

// FixedWindow admits at most limit calls per key per window. Windows are
// aligned to multiples of the window length.
type FixedWindow struct {
	store  CounterStore
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewFixedWindow(store CounterStore, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// New builds the inbound limiter on the backend named by RATE_LIMIT_BACKEND.
func New(cfg *config.Config, client *redis.Client, logger zerolog.Logger) (*FixedWindow, error) {
	var store CounterStore
	switch cfg.RateLimit.Backend {
	case "", "memory":
		store = NewMemoryCounterStore()
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis rate limit backend selected but REDIS_ADDR is empty")
		}
		store = NewRedisCounterStore(client, "summoner:ratelimit")
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}

	logger.Info().
		Str("backend", cfg.RateLimit.Backend).
		Int("requests", cfg.RateLimit.Requests).
		Dur("window", cfg.RateLimit.Window).
		Msg("inbound rate limiter ready")
	return NewFixedWindow(store, cfg.RateLimit.Requests, cfg.RateLimit.Window), nil
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	resetAt := windowStart.Add(l.window)

	count, err := l.store.Incr(ctx, key, windowStart, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr %s: %w", key, err)
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
