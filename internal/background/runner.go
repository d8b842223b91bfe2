package background

import (
	"context"
	"sync"
	"time"

	"summoner-tracker/internal/constants"

	"github.com/rs/zerolog"
)

// Runner executes best-effort work detached from the caller. A task is
// never cancelled by the caller's context, only by its own timeout, and its
// error is logged and dropped.
type Runner struct {
	logger  zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{
		logger:  logger.With().Str("component", "background").Logger(),
		timeout: constants.BackgroundTimeout,
	}
}

func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error().Interface("panic", rec).Str("task", name).Msg("background task panicked")
			}
		}()

		start := time.Now()
		if err := fn(taskCtx); err != nil {
			r.logger.Warn().Err(err).Str("task", name).Dur("duration", time.Since(start)).Msg("background task failed")
			return
		}
		r.logger.Debug().Str("task", name).Dur("duration", time.Since(start)).Msg("background task done")
	}()
}

// Wait blocks until every task started so far has finished or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
