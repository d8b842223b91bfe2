package service

import (
	"context"
	"fmt"
	"strings"
	"summoner-tracker/internal/api"
	"summoner-tracker/internal/domain"
	"sync"
	"sync/atomic"
	"time"
)

// fakeRiot is an in-memory upstream with per-endpoint call counters.
type fakeRiot struct {
	mu sync.Mutex

	accounts        map[string]*api.AccountResponse // lower(name#tag)
	summoners       map[string]*api.SummonerResponse
	summonerErr     error
	summonerErrOnce bool
	summonerGate    chan struct{}
	leagueErr       error
	matchIDs        map[string][]string
	matchIDsErr     error
	matches         map[string]string
	matchErr        map[string]error
	matchDelay      map[string]time.Duration
	liveGames       map[string]*api.ActiveGameResponse
	masteryErr      error

	calls  atomic.Uint64
	counts map[string]int
}

func newFakeRiot() *fakeRiot {
	return &fakeRiot{
		accounts:   make(map[string]*api.AccountResponse),
		summoners:  make(map[string]*api.SummonerResponse),
		matchIDs:   make(map[string][]string),
		matches:    make(map[string]string),
		matchErr:   make(map[string]error),
		matchDelay: make(map[string]time.Duration),
		liveGames:  make(map[string]*api.ActiveGameResponse),
		counts:     make(map[string]int),
	}
}

// addPlayer registers a player and its recent matches with minimal payloads.
func (f *fakeRiot) addPlayer(gameName, tagLine, puuid string, matchIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[strings.ToLower(gameName+"#"+tagLine)] = &api.AccountResponse{PUUID: puuid, GameName: gameName, TagLine: tagLine}
	f.summoners[puuid] = &api.SummonerResponse{ID: "sum-" + puuid, PUUID: puuid, ProfileIconID: 7, SummonerLevel: 300}
	f.matchIDs[puuid] = matchIDs
	for _, id := range matchIDs {
		f.matches[id] = fmt.Sprintf(`{"metadata":{"matchId":%q}}`, id)
	}
}

func (f *fakeRiot) record(endpoint string) {
	f.calls.Add(1)
	f.mu.Lock()
	f.counts[endpoint]++
	f.mu.Unlock()
}

func (f *fakeRiot) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[endpoint]
}

func (f *fakeRiot) set(fn func(f *fakeRiot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
}

func (f *fakeRiot) GetAccountByRiotID(ctx context.Context, platform, gameName, tagLine string) (*api.AccountResponse, error) {
	f.record("account")
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[strings.ToLower(gameName+"#"+tagLine)]
	if !ok {
		return nil, notFound("account")
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeRiot) GetSummonerByPUUID(ctx context.Context, platform, puuid string) (*api.SummonerResponse, error) {
	f.record("summoner")
	f.mu.Lock()
	gate := f.summonerGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summonerErr != nil {
		err := f.summonerErr
		if f.summonerErrOnce {
			f.summonerErr = nil
		}
		return nil, err
	}
	s, ok := f.summoners[puuid]
	if !ok {
		return nil, notFound("summoner")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRiot) GetLeagueEntries(ctx context.Context, platform, summonerID string) ([]api.LeagueEntryResponse, error) {
	f.record("league")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leagueErr != nil {
		return nil, f.leagueErr
	}
	return []api.LeagueEntryResponse{{QueueType: "RANKED_SOLO_5x5", Tier: "GOLD", Rank: "II", LeaguePoints: 42, Wins: 10, Losses: 8}}, nil
}

func (f *fakeRiot) GetMatchIDs(ctx context.Context, platform, puuid string, count int) ([]string, error) {
	f.record("match_ids")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.matchIDsErr != nil {
		return nil, f.matchIDsErr
	}
	ids := f.matchIDs[puuid]
	if len(ids) > count {
		ids = ids[:count]
	}
	return append([]string{}, ids...), nil
}

func (f *fakeRiot) GetMatch(ctx context.Context, platform, matchID string) ([]byte, error) {
	f.record("match")
	f.record("match:" + matchID)
	f.mu.Lock()
	delay := f.matchDelay[matchID]
	err := f.matchErr[matchID]
	body, ok := f.matches[matchID]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("match")
	}
	return []byte(body), nil
}

func (f *fakeRiot) GetActiveGame(ctx context.Context, platform, puuid string) (*api.ActiveGameResponse, error) {
	f.record("live_game")
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.liveGames[puuid]
	if !ok {
		return nil, notFound("active game")
	}
	return game, nil
}

func (f *fakeRiot) GetTopChampionMastery(ctx context.Context, platform, puuid string, count int) ([]api.ChampionMasteryResponse, error) {
	f.record("mastery")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.masteryErr != nil {
		return nil, f.masteryErr
	}
	return []api.ChampionMasteryResponse{{PUUID: puuid, ChampionID: 157, ChampionLevel: 7, ChampionPoints: 123456}}, nil
}

func (f *fakeRiot) CallCount() uint64 {
	return f.calls.Load()
}

func (f *fakeRiot) RateLimit() api.RateLimitInfo {
	return api.RateLimitInfo{}
}
