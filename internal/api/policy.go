package api

import (
	"context"
	"errors"
	"summoner-tracker/internal/constants"
	"summoner-tracker/internal/domain"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy bounds a single logical upstream call. Each attempt gets its own
// Timeout; only ErrUpstreamUnavailable is retried.
type Policy struct {
	Timeout    time.Duration
	MaxRetries uint64
	Backoff    time.Duration
}

var (
	Required = Policy{
		Timeout:    constants.RequiredCallTimeout,
		MaxRetries: constants.RequiredCallRetries,
		Backoff:    constants.RequiredCallBackoff,
	}
	BestEffort = Policy{
		Timeout:    constants.BestEffortCallTimeout,
		MaxRetries: 0,
		Backoff:    constants.RequiredCallBackoff,
	}
)

func Call[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T

	base := p.Backoff
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(p.MaxRetries, retry.NewExponential(base))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		v, err := fn(attemptCtx)
		if err != nil {
			if errors.Is(err, domain.ErrUpstreamUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})
	return out, err
}
