package service

import (
	"context"
	"summoner-tracker/internal/api"
)

// RiotAPI is the upstream surface the pipeline depends on. *api.RiotClient
// satisfies it.
type RiotAPI interface {
	GetAccountByRiotID(ctx context.Context, platform, gameName, tagLine string) (*api.AccountResponse, error)
	GetSummonerByPUUID(ctx context.Context, platform, puuid string) (*api.SummonerResponse, error)
	GetLeagueEntries(ctx context.Context, platform, summonerID string) ([]api.LeagueEntryResponse, error)
	GetMatchIDs(ctx context.Context, platform, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, platform, matchID string) ([]byte, error)
	GetActiveGame(ctx context.Context, platform, puuid string) (*api.ActiveGameResponse, error)
	GetTopChampionMastery(ctx context.Context, platform, puuid string, count int) ([]api.ChampionMasteryResponse, error)

	CallCount() uint64
	RateLimit() api.RateLimitInfo
}

var _ RiotAPI = (*api.RiotClient)(nil)
