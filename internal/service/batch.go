package service

import (
	"context"
	"summoner-tracker/internal/config"
	"summoner-tracker/internal/domain"
	"summoner-tracker/internal/ratelimit"
	"summoner-tracker/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

type BatchSummary struct {
	Accounts  int           `json:"accounts"`
	Refreshed int           `json:"refreshed"`
	Failed    int           `json:"failed"`
	Throttled int           `json:"throttled"`
	Calls     uint64        `json:"calls"`
	Duration  time.Duration `json:"duration"`
}

// BatchRefresher force-refreshes stored accounts one at a time, pacing
// itself against the upstream call budget.
type BatchRefresher struct {
	profiles *ProfileService
	accounts *repository.AccountRepository
	riot     RiotAPI
	pacer    *ratelimit.Pacer
	size     int
	logger   zerolog.Logger
}

func NewBatchRefresher(
	cfg *config.Config,
	profiles *ProfileService,
	accounts *repository.AccountRepository,
	riot RiotAPI,
	logger zerolog.Logger,
) *BatchRefresher {
	log := logger.With().Str("component", "batch").Logger()
	return &BatchRefresher{
		profiles: profiles,
		accounts: accounts,
		riot:     riot,
		pacer:    ratelimit.NewPacer(cfg.Batch.CallBudget, cfg.Batch.Window, log),
		size:     cfg.Batch.Size,
		logger:   log,
	}
}

const maxBatchAttempts = 2

func (b *BatchRefresher) Run(ctx context.Context) (BatchSummary, error) {
	start := time.Now()
	var summary BatchSummary

	accounts, err := b.accounts.ListForRefresh(ctx, b.size)
	if err != nil {
		return summary, err
	}
	summary.Accounts = len(accounts)
	b.logger.Info().Int("accounts", len(accounts)).Msg("batch refresh starting")

	startCalls := b.riot.CallCount()
	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return b.finish(summary, start, startCalls), err
		}

		for attempt := 1; attempt <= maxBatchAttempts; attempt++ {
			before := b.riot.CallCount()
			_, err := b.profiles.RefreshAccount(ctx, acc)
			if perr := b.pacer.Observe(ctx, int(b.riot.CallCount()-before)); perr != nil {
				return b.finish(summary, start, startCalls), perr
			}

			if err == nil {
				summary.Refreshed++
				break
			}

			if rl, ok := domain.AsRateLimited(err); ok {
				summary.Throttled++
				if berr := b.pacer.Backoff(ctx, rl.RetryAfter); berr != nil {
					return b.finish(summary, start, startCalls), berr
				}
				if attempt < maxBatchAttempts {
					continue
				}
			}

			summary.Failed++
			b.logger.Warn().Err(err).Str("account_id", acc.ID).Str("puuid", acc.PUUID).Msg("account refresh failed")
			break
		}
	}

	summary = b.finish(summary, start, startCalls)
	rl := b.riot.RateLimit()
	evt := b.logger.Info().
		Int("refreshed", summary.Refreshed).
		Int("failed", summary.Failed).
		Int("throttled", summary.Throttled).
		Uint64("calls", summary.Calls).
		Dur("duration", summary.Duration)
	if w, ok := rl.Tightest(); ok {
		evt = evt.Int("upstream_remaining", w.Remaining()).Dur("upstream_window", w.Window)
	}
	evt.Msg("batch refresh finished")
	return summary, nil
}

func (b *BatchRefresher) finish(s BatchSummary, start time.Time, startCalls uint64) BatchSummary {
	s.Calls = b.riot.CallCount() - startCalls
	s.Duration = time.Since(start)
	return s
}
