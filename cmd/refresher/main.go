package main

import (
	"context"
	"database/sql"
	"summoner-tracker/internal/background"
	"summoner-tracker/internal/constants"
	fxmodules "summoner-tracker/internal/fx"
	"summoner-tracker/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// refresher runs one pass over the least recently refreshed accounts and exits.
func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runBatch),
	).Run()
}

func runBatch(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	batch *service.BatchRefresher,
	db *sql.DB,
	rdb *redis.Client,
	bg *background.Runner,
	logger zerolog.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				summary, err := batch.Run(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("batch refresh failed")
					shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				logger.Info().
					Int("accounts", summary.Accounts).
					Int("refreshed", summary.Refreshed).
					Int("failed", summary.Failed).
					Int("throttled", summary.Throttled).
					Uint64("calls", summary.Calls).
					Dur("duration", summary.Duration).
					Msg("batch refresh finished")
				shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done

			waitCtx, stop := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer stop()
			if err := bg.Wait(waitCtx); err != nil {
				logger.Warn().Err(err).Msg("background writes did not finish")
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			if rdb != nil {
				if err := rdb.Close(); err != nil {
					logger.Warn().Err(err).Msg("error closing redis client")
				}
			}
			return nil
		},
	})
}
