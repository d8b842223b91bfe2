package service

import (
	"context"
	"errors"
	"fmt"
	"summoner-tracker/internal/api"
	"summoner-tracker/internal/config"
	"summoner-tracker/internal/constants"
	"summoner-tracker/internal/domain"
	"summoner-tracker/internal/repository"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type ProfileRequest struct {
	GameName    string
	TagLine     string
	Region      string
	ForceUpdate bool
}

// ProfileService assembles profile snapshots. A snapshot is built entirely
// in memory and stored with a single upsert, so a failed refresh never
// touches the stored one.
type ProfileService struct {
	riot      RiotAPI
	identity  *IdentityResolver
	matches   *MatchDetailCache
	snapshots *repository.SnapshotRepository
	cfg       config.ProfileConfig

	required   api.Policy
	bestEffort api.Policy

	// nil unless REFRESH_SINGLE_FLIGHT is set
	inflight *singleflight.Group

	now    func() time.Time
	logger zerolog.Logger
}

func NewProfileService(
	cfg *config.Config,
	riot RiotAPI,
	identity *IdentityResolver,
	matches *MatchDetailCache,
	snapshots *repository.SnapshotRepository,
	logger zerolog.Logger,
) *ProfileService {
	s := &ProfileService{
		riot:       riot,
		identity:   identity,
		matches:    matches,
		snapshots:  snapshots,
		cfg:        cfg.Profile,
		required:   api.Required,
		bestEffort: api.BestEffort,
		now:        time.Now,
		logger:     logger.With().Str("component", "profile").Logger(),
	}
	if cfg.Profile.SingleFlight {
		s.inflight = &singleflight.Group{}
	}
	return s
}

func (s *ProfileService) GetProfile(ctx context.Context, req ProfileRequest) (*domain.ProfileSnapshot, error) {
	id, err := domain.ValidateRiotID(req.GameName, req.TagLine, req.Region)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("riot_id", id.String()).Str("region", id.Region).Bool("force", req.ForceUpdate).Msg("getting profile")

	ident, err := s.identity.Lookup(ctx, id, req.ForceUpdate)
	if err != nil {
		return nil, err
	}
	return s.Refresh(ctx, ident, req.ForceUpdate)
}

// RefreshAccount force-refreshes a stored account without resolving its
// riot id again.
func (s *ProfileService) RefreshAccount(ctx context.Context, acc domain.Account) (*domain.ProfileSnapshot, error) {
	ident := &Identity{
		PUUID:    acc.PUUID,
		GameName: acc.GameName,
		TagLine:  acc.TagLine,
		Region:   acc.Region,
		Account:  &acc,
	}
	return s.Refresh(ctx, ident, true)
}

func (s *ProfileService) Refresh(ctx context.Context, ident *Identity, force bool) (*domain.ProfileSnapshot, error) {
	if ident.Account != nil && !force {
		snap, err := s.snapshots.Get(ctx, ident.Account.ID)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			// a renamed player is served from cache, the row still follows the new riot id
			if _, err := s.identity.Ensure(ctx, ident); err != nil {
				return nil, err
			}
			s.logger.Debug().Str("account_id", ident.Account.ID).Msg("returning cached snapshot")
			return snap, nil
		}
	}

	if s.inflight == nil {
		return s.refresh(ctx, ident)
	}

	// The shared refresh belongs to no single caller: a caller whose ctx ends
	// stops waiting, the refresh keeps going for the others.
	ch := s.inflight.DoChan(ident.PUUID, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RequestTimeout)
		defer cancel()
		return s.refresh(sharedCtx, ident)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug().Str("puuid", ident.PUUID).Msg("joined in-flight refresh")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.ProfileSnapshot), nil
	}
}

func (s *ProfileService) refresh(ctx context.Context, ident *Identity) (*domain.ProfileSnapshot, error) {
	start := s.now()
	platform := ident.Region
	log := s.logger.With().Str("puuid", ident.PUUID).Str("region", platform).Logger()

	summoner, err := api.Call(ctx, s.required, func(ctx context.Context) (*api.SummonerResponse, error) {
		return s.riot.GetSummonerByPUUID(ctx, platform, ident.PUUID)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch summoner")
		return nil, fmt.Errorf("fetch summoner: %w", err)
	}

	account, err := s.identity.Ensure(ctx, ident)
	if err != nil {
		log.Error().Err(err).Msg("failed to store account")
		return nil, err
	}
	log = log.With().Str("account_id", account.ID).Logger()

	ranked := []domain.RankedEntry{}
	var matchIDs []string

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := api.Call(gCtx, s.bestEffort, func(ctx context.Context) ([]api.LeagueEntryResponse, error) {
			return s.riot.GetLeagueEntries(ctx, platform, summoner.ID)
		})
		if err != nil {
			log.Warn().Err(err).Msg("ranked entries unavailable")
			return nil
		}
		ranked = toRankedEntries(entries)
		return nil
	})
	g.Go(func() error {
		ids, err := api.Call(gCtx, s.required, func(ctx context.Context) ([]string, error) {
			return s.riot.GetMatchIDs(ctx, platform, ident.PUUID, s.cfg.MatchCount)
		})
		if err != nil {
			return fmt.Errorf("fetch match ids: %w", err)
		}
		matchIDs = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("refresh aborted")
		return nil, err
	}
	if matchIDs == nil {
		matchIDs = []string{}
	}

	details := s.fetchMatchDetails(ctx, platform, matchIDs, log)

	mastery := []domain.ChampionMastery{}
	var live *domain.LiveGame

	var side errgroup.Group
	side.Go(func() error {
		res, err := api.Call(ctx, s.bestEffort, func(ctx context.Context) ([]api.ChampionMasteryResponse, error) {
			return s.riot.GetTopChampionMastery(ctx, platform, ident.PUUID, s.cfg.MasteryCount)
		})
		if err != nil {
			log.Warn().Err(err).Msg("champion mastery unavailable")
			return nil
		}
		mastery = toChampionMastery(res)
		return nil
	})
	side.Go(func() error {
		game, err := api.Call(ctx, s.bestEffort, func(ctx context.Context) (*api.ActiveGameResponse, error) {
			return s.riot.GetActiveGame(ctx, platform, ident.PUUID)
		})
		switch {
		case errors.Is(err, domain.ErrNotFound):
			log.Debug().Msg("player not in game")
		case err != nil:
			log.Warn().Err(err).Msg("live game unavailable")
		default:
			live = toLiveGame(game)
		}
		return nil
	})
	side.Wait()

	snap := &domain.ProfileSnapshot{
		AccountID: account.ID,
		Summoner: domain.Summoner{
			ProfileIconID: summoner.ProfileIconID,
			Level:         summoner.SummonerLevel,
			InternalID:    summoner.ID,
		},
		RankedEntries:   ranked,
		ChampionMastery: mastery,
		MatchIDs:        matchIDs,
		MatchDetails:    details,
		LiveGame:        live,
		UpdatedAt:       s.now().UTC().Truncate(time.Millisecond),
	}

	written, err := s.snapshots.Upsert(ctx, snap)
	if err != nil {
		log.Error().Err(err).Msg("failed to store snapshot")
		return nil, err
	}
	if !written {
		// a newer snapshot landed first; serve that one
		current, err := s.snapshots.Get(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			snap = current
		}
	}

	log.Info().
		Int("matches", len(matchIDs)).
		Int("match_details", len(details)).
		Bool("in_game", live != nil).
		Dur("duration", s.now().Sub(start)).
		Msg("profile refreshed")
	return snap, nil
}

// fetchMatchDetails fans out one lookup per id. Results keep the order of
// ids; failed lookups are dropped.
func (s *ProfileService) fetchMatchDetails(ctx context.Context, platform string, ids []string, log zerolog.Logger) []domain.MatchDetail {
	slots := make([]*domain.MatchDetail, len(ids))

	var g errgroup.Group
	if s.cfg.MatchFetchConcurrency > 0 {
		g.SetLimit(s.cfg.MatchFetchConcurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			detail, err := s.matches.GetOrFetch(ctx, id, platform)
			if err != nil {
				log.Warn().Err(err).Str("match_id", id).Msg("match detail unavailable")
				return nil
			}
			slots[i] = detail
			return nil
		})
	}
	g.Wait()

	details := make([]domain.MatchDetail, 0, len(ids))
	for _, d := range slots {
		if d != nil {
			details = append(details, *d)
		}
	}
	return details
}

func toRankedEntries(entries []api.LeagueEntryResponse) []domain.RankedEntry {
	out := make([]domain.RankedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.RankedEntry{
			QueueType:    e.QueueType,
			Tier:         e.Tier,
			Rank:         e.Rank,
			LeaguePoints: e.LeaguePoints,
			Wins:         e.Wins,
			Losses:       e.Losses,
			HotStreak:    e.HotStreak,
		})
	}
	return out
}

func toChampionMastery(masteries []api.ChampionMasteryResponse) []domain.ChampionMastery {
	out := make([]domain.ChampionMastery, 0, len(masteries))
	for _, m := range masteries {
		out = append(out, domain.ChampionMastery{
			ChampionID:     m.ChampionID,
			ChampionLevel:  m.ChampionLevel,
			ChampionPoints: m.ChampionPoints,
			LastPlayTime:   m.LastPlayTime,
		})
	}
	return out
}

func toLiveGame(game *api.ActiveGameResponse) *domain.LiveGame {
	live := &domain.LiveGame{
		GameID:        game.GameID,
		GameMode:      game.GameMode,
		GameQueueID:   game.GameQueueConfigID,
		GameStartTime: game.GameStartTime,
		Participants:  make([]domain.LiveGameParticipant, 0, len(game.Participants)),
	}
	for _, p := range game.Participants {
		live.Participants = append(live.Participants, domain.LiveGameParticipant{
			PUUID:      p.PUUID,
			ChampionID: p.ChampionID,
			TeamID:     p.TeamID,
		})
	}
	return live
}
