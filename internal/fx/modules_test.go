package fx

import (
	"net/http"
	"summoner-tracker/internal/cache"
	"summoner-tracker/internal/config"
	"summoner-tracker/internal/service"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestModulesValidate(t *testing.T) {
	tests := []struct {
		name string
		opts fx.Option
	}{
		{"http", fx.Options(HTTPModule, fx.Invoke(func(http.Handler) {}))},
		{"batch", fx.Options(Module, fx.Invoke(func(*service.BatchRefresher) {}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := fx.ValidateApp(tt.opts); err != nil {
				t.Fatalf("validate: %v", err)
			}
		})
	}
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestCloseOnStop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	closer := &countingCloser{}
	closeOnStop(lc, closer)
	closeOnStop(lc, struct{}{})

	lc.RequireStart()
	if closer.closed != 0 {
		t.Fatalf("closed before stop: %d", closer.closed)
	}
	lc.RequireStop()
	if closer.closed != 1 {
		t.Fatalf("closed = %d, want 1", closer.closed)
	}
}

func TestProvideTTLCacheMemoryBackend(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := &config.Config{Redis: config.RedisConfig{CacheBackend: "memory"}}

	c, err := ProvideTTLCache(lc, cfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("ProvideTTLCache: %v", err)
	}
	if _, ok := c.(*cache.MemoryCache); !ok {
		t.Fatalf("cache = %T, want *cache.MemoryCache", c)
	}
	lc.RequireStart().RequireStop()
}

func TestProvideTTLCacheRedisWithoutClient(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := &config.Config{Redis: config.RedisConfig{CacheBackend: "redis"}}
	if _, err := ProvideTTLCache(lc, cfg, nil, zerolog.Nop()); err == nil {
		t.Fatal("expected error for redis backend without a client")
	}
}
