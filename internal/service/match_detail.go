package service

import (
	"context"
	"encoding/json"
	"fmt"
	"summoner-tracker/internal/api"
	"summoner-tracker/internal/background"
	"summoner-tracker/internal/domain"
	"summoner-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// MatchDetailCache is a read-through cache over match documents shared by
// every account. Misses are written back in the background.
type MatchDetailCache struct {
	riot   RiotAPI
	repo   *repository.MatchDetailRepository
	bg     *background.Runner
	policy api.Policy
	logger zerolog.Logger
}

func NewMatchDetailCache(riot RiotAPI, repo *repository.MatchDetailRepository, bg *background.Runner, logger zerolog.Logger) *MatchDetailCache {
	return &MatchDetailCache{
		riot:   riot,
		repo:   repo,
		bg:     bg,
		policy: api.BestEffort,
		logger: logger.With().Str("component", "match_detail_cache").Logger(),
	}
}

func (c *MatchDetailCache) GetOrFetch(ctx context.Context, matchID, platform string) (*domain.MatchDetail, error) {
	cached, err := c.repo.Get(ctx, matchID)
	if err != nil {
		c.logger.Warn().Err(err).Str("match_id", matchID).Msg("match detail read failed, fetching upstream")
	}
	if cached != nil {
		c.logger.Debug().Str("match_id", matchID).Msg("match detail cache hit")
		return cached, nil
	}

	raw, err := api.Call(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
		return c.riot.GetMatch(ctx, platform, matchID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", matchID, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("fetch match %s: upstream returned invalid json", matchID)
	}

	detail := &domain.MatchDetail{MatchID: matchID, Platform: platform, Payload: raw}
	c.bg.Go(ctx, "match_detail_upsert", func(ctx context.Context) error {
		return c.repo.Upsert(ctx, detail)
	})
	return detail, nil
}
