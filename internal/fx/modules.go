package fx

import (
	"context"
	"io"
	"summoner-tracker/internal/api"
	"summoner-tracker/internal/background"
	"summoner-tracker/internal/cache"
	"summoner-tracker/internal/config"
	"summoner-tracker/internal/database"
	"summoner-tracker/internal/logger"
	"summoner-tracker/internal/middleware"
	"summoner-tracker/internal/ratelimit"
	"summoner-tracker/internal/repository"
	"summoner-tracker/internal/server"
	"summoner-tracker/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideTTLCache builds the configured cache and stops its background
// work with the app.
func ProvideTTLCache(lc fx.Lifecycle, cfg *config.Config, client *redis.Client, logger zerolog.Logger) (cache.TTLCache, error) {
	c, err := cache.New(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	closeOnStop(lc, c)
	return c, nil
}

// closeOnStop registers Close for values that own goroutines. The Redis
// cache does not; its client is closed by the binaries.
func closeOnStop(lc fx.Lifecycle, v any) {
	closer, ok := v.(io.Closer)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closer.Close()
		},
	})
}

// Module wires everything both binaries need: config, storage, the Riot
// client and the aggregation services.
var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewAccountRepository),
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(repository.NewMatchDetailRepository),
	// api client
	fx.Provide(fx.Annotate(api.NewRiotClient, fx.As(new(service.RiotAPI)))),
	// caches
	fx.Provide(cache.NewRedisClient),
	fx.Provide(ProvideTTLCache),
	fx.Provide(background.NewRunner),
	// svc
	fx.Provide(service.NewIdentityResolver),
	fx.Provide(service.NewMatchDetailCache),
	fx.Provide(service.NewProfileService),
	fx.Provide(service.NewBatchRefresher),
)

// HTTPModule adds the HTTP surface on top of Module.
var HTTPModule = fx.Options(
	Module,
	fx.Provide(fx.Annotate(ratelimit.New, fx.As(new(middleware.Limiter)))),
	fx.Provide(server.NewProfileServer),
	fx.Provide(server.NewRouter),
)
