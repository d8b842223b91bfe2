package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"summoner-tracker/internal/background"
	"summoner-tracker/internal/config"
	"summoner-tracker/internal/constants"
	fxmodules "summoner-tracker/internal/fx"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.HTTPModule,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	handler http.Handler,
	cfg *config.Config,
	db *sql.DB,
	rdb *redis.Client,
	bg *background.Runner,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           handler,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			// detached cache writes still need the database
			if err := bg.Wait(shutdownCtx); err != nil {
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
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
