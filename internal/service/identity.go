package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"summoner-tracker/internal/api"
	"summoner-tracker/internal/cache"
	"summoner-tracker/internal/constants"
	"summoner-tracker/internal/domain"
	"summoner-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// Identity is a riot id resolved to its PUUID. Account is nil until the
// player has been stored.
type Identity struct {
	PUUID    string
	GameName string
	TagLine  string
	Region   string
	Account  *domain.Account
}

type IdentityResolver struct {
	riot     RiotAPI
	accounts *repository.AccountRepository
	cache    cache.TTLCache
	policy   api.Policy
	logger   zerolog.Logger
}

func NewIdentityResolver(riot RiotAPI, accounts *repository.AccountRepository, ttlCache cache.TTLCache, logger zerolog.Logger) *IdentityResolver {
	return &IdentityResolver{
		riot:     riot,
		accounts: accounts,
		cache:    ttlCache,
		policy:   api.Required,
		logger:   logger.With().Str("component", "identity").Logger(),
	}
}

func identityCacheKey(id domain.RiotID) string {
	return fmt.Sprintf("puuid:%s:%s:%s", id.Region, strings.ToLower(id.GameName), strings.ToLower(id.TagLine))
}

// Lookup translates a riot id into a PUUID. Unless fresh is set, a stored
// account or a cached translation short-circuits the upstream call. A
// player whose riot id changed comes back with its old account attached;
// Ensure applies the rename.
func (r *IdentityResolver) Lookup(ctx context.Context, id domain.RiotID, fresh bool) (*Identity, error) {
	if !fresh {
		acc, err := r.accounts.GetByRiotID(ctx, id.GameName, id.TagLine, id.Region)
		if err != nil {
			return nil, err
		}
		if acc != nil {
			r.logger.Debug().Str("riot_id", id.String()).Str("account_id", acc.ID).Msg("identity resolved from store")
			return &Identity{PUUID: acc.PUUID, GameName: acc.GameName, TagLine: acc.TagLine, Region: acc.Region, Account: acc}, nil
		}
	}

	ident := &Identity{GameName: id.GameName, TagLine: id.TagLine, Region: id.Region}
	key := identityCacheKey(id)

	if !fresh {
		if puuid, err := r.cache.Get(ctx, key); err == nil {
			ident.PUUID = string(puuid)
			r.logger.Debug().Str("riot_id", id.String()).Msg("identity resolved from cache")
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn().Err(err).Str("riot_id", id.String()).Msg("identity cache read failed")
		}
	}

	if ident.PUUID == "" {
		acc, err := api.Call(ctx, r.policy, func(ctx context.Context) (*api.AccountResponse, error) {
			return r.riot.GetAccountByRiotID(ctx, id.Region, id.GameName, id.TagLine)
		})
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", id, err)
		}
		ident.PUUID = acc.PUUID
		if acc.GameName != "" && acc.TagLine != "" {
			ident.GameName, ident.TagLine = acc.GameName, acc.TagLine
		}
		if err := r.cache.Set(ctx, key, []byte(acc.PUUID), constants.IdentityCacheTTL); err != nil {
			r.logger.Warn().Err(err).Str("riot_id", id.String()).Msg("identity cache write failed")
		}
	}

	existing, err := r.accounts.GetByExternalID(ctx, ident.PUUID)
	if err != nil {
		return nil, err
	}
	ident.Account = existing
	return ident, nil
}

// Ensure stores the account for ident if it has none yet, or renames the
// stored row when the riot id changed. Concurrent callers for the same
// PUUID all end up with the same row. Lookup never writes; this does.
func (r *IdentityResolver) Ensure(ctx context.Context, ident *Identity) (*domain.Account, error) {
	if acc := ident.Account; acc != nil {
		if strings.EqualFold(acc.GameName, ident.GameName) && strings.EqualFold(acc.TagLine, ident.TagLine) {
			return acc, nil
		}
		if err := r.accounts.UpdateRiotID(ctx, acc.ID, ident.GameName, ident.TagLine); err != nil {
			return nil, err
		}
		r.logger.Info().
			Str("account_id", acc.ID).
			Str("from", acc.GameName+"#"+acc.TagLine).
			Str("to", ident.GameName+"#"+ident.TagLine).
			Msg("riot id changed")
		acc.GameName, acc.TagLine = ident.GameName, ident.TagLine
		return acc, nil
	}

	res, err := r.accounts.Insert(ctx, domain.Account{
		GameName: ident.GameName,
		TagLine:  ident.TagLine,
		Region:   ident.Region,
		PUUID:    ident.PUUID,
	})
	if err != nil {
		return nil, err
	}

	switch res.Outcome {
	case repository.Inserted:
		r.logger.Info().Str("account_id", res.Account.ID).Str("puuid", ident.PUUID).Msg("account created")
	case repository.AlreadyExists:
		r.logger.Debug().Str("account_id", res.Account.ID).Str("puuid", ident.PUUID).Msg("account created concurrently, reusing")
	}
	ident.Account = res.Account
	return res.Account, nil
}

// Resolve maps a riot id to its stored account, creating it on first
// sight. It is the whole identity step for callers that do not need to
// fetch anything from the upstream between lookup and insert; profile
// refreshes use Lookup and Ensure separately so an unknown summoner never
// gets a row.
func (r *IdentityResolver) Resolve(ctx context.Context, id domain.RiotID) (*domain.Account, error) {
	ident, err := r.Lookup(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return r.Ensure(ctx, ident)
}
