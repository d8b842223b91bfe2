package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"summoner-tracker/internal/config"
	"summoner-tracker/internal/constants"
	"summoner-tracker/internal/domain"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type RiotClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger

	calls atomic.Uint64

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

func NewRiotClient(cfg *config.Config, logger zerolog.Logger) *RiotClient {
	return &RiotClient{
		apiKey:  cfg.RiotAPIKey,
		baseURL: strings.TrimRight(cfg.RiotBaseURL, "/"),
		logger:  logger.With().Str("component", "riot_client").Logger(),
		client: &fasthttp.Client{
			MaxConnsPerHost:     constants.UpstreamMaxConnsPerHost,
			ReadTimeout:         constants.UpstreamReadTimeout,
			WriteTimeout:        constants.UpstreamWriteTimeout,
			MaxIdleConnDuration: constants.UpstreamIdleConn,
		},
	}
}

// CallCount is the number of upstream requests issued so far, including
// ones that failed.
func (c *RiotClient) CallCount() uint64 {
	return c.calls.Load()
}

func (c *RiotClient) host(routing string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + routing + ".api.riotgames.com"
}

func (c *RiotClient) regional(platform string) (string, error) {
	cluster, ok := domain.RegionalCluster(platform)
	if !ok {
		return "", &domain.ValidationError{Field: "region", Message: fmt.Sprintf("unknown region %q", platform)}
	}
	return c.host(cluster), nil
}

func (c *RiotClient) GetAccountByRiotID(ctx context.Context, platform, gameName, tagLine string) (*AccountResponse, error) {
	base, err := c.regional(platform)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s", base, url.PathEscape(gameName), url.PathEscape(tagLine))
	return doRequest[AccountResponse](ctx, c, "account-by-riot-id", u)
}

func (c *RiotClient) GetSummonerByPUUID(ctx context.Context, platform, puuid string) (*SummonerResponse, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.host(platform), url.PathEscape(puuid))
	return doRequest[SummonerResponse](ctx, c, "summoner-by-puuid", u)
}

func (c *RiotClient) GetLeagueEntries(ctx context.Context, platform, summonerID string) ([]LeagueEntryResponse, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s", c.host(platform), url.PathEscape(summonerID))
	entries, err := doRequest[[]LeagueEntryResponse](ctx, c, "league-entries-by-summoner", u)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

func (c *RiotClient) GetMatchIDs(ctx context.Context, platform, puuid string, count int) ([]string, error) {
	base, err := c.regional(platform)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d", base, url.PathEscape(puuid), count)
	ids, err := doRequest[[]string](ctx, c, "match-ids-by-puuid", u)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

// GetMatch returns the raw match document. Match payloads are stored
// verbatim so no decoding happens here.
func (c *RiotClient) GetMatch(ctx context.Context, platform, matchID string) ([]byte, error) {
	base, err := c.regional(platform)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", base, url.PathEscape(matchID))
	return c.do(ctx, "match-by-id", u)
}

func (c *RiotClient) GetActiveGame(ctx context.Context, platform, puuid string) (*ActiveGameResponse, error) {
	u := fmt.Sprintf("%s/lol/spectator/v5/active-games/by-summoner/%s", c.host(platform), url.PathEscape(puuid))
	return doRequest[ActiveGameResponse](ctx, c, "active-game-by-puuid", u)
}

func (c *RiotClient) GetTopChampionMastery(ctx context.Context, platform, puuid string, count int) ([]ChampionMasteryResponse, error) {
	u := fmt.Sprintf("%s/lol/champion-mastery/v4/champion-masteries/by-puuid/%s/top?count=%d", c.host(platform), url.PathEscape(puuid), count)
	masteries, err := doRequest[[]ChampionMasteryResponse](ctx, c, "champion-mastery-top", u)
	if err != nil {
		return nil, err
	}
	return *masteries, nil
}

func doRequest[T any](ctx context.Context, c *RiotClient, endpoint, u string) (*T, error) {
	body, err := c.do(ctx, endpoint, u)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return &result, nil
}

func (c *RiotClient) do(ctx context.Context, endpoint, u string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.calls.Add(1)
	start := time.Now()

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, fasthttp.ErrTimeout) {
			return nil, ctxErr
		}
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Dur("duration", time.Since(start)).Msg("upstream request failed")
		return nil, fmt.Errorf("%s: %w: %v", endpoint, domain.ErrUpstreamUnavailable, err)
	}

	c.updateRateLimit(resp)

	status := resp.StatusCode()
	c.logger.Debug().Str("endpoint", endpoint).Int("status", status).Dur("duration", time.Since(start)).Msg("upstream response")

	if err := statusError(endpoint, resp); err != nil {
		return nil, err
	}

	// resp is released on return
	return append([]byte(nil), resp.Body()...), nil
}

func statusError(endpoint string, resp *fasthttp.Response) error {
	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == fasthttp.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, domain.ErrNotFound)
	case status == fasthttp.StatusTooManyRequests:
		return &domain.RateLimitedError{
			RetryAfter: parseRetryAfter(resp.Header.Peek("Retry-After")),
			Endpoint:   endpoint,
		}
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return fmt.Errorf("%s: upstream rejected api key (status %d)", endpoint, status)
	case status >= 500:
		return fmt.Errorf("%s: status %d: %w", endpoint, status, domain.ErrUpstreamUnavailable)
	default:
		return fmt.Errorf("%s: unexpected upstream status %d", endpoint, status)
	}
}

func parseRetryAfter(raw []byte) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || secs <= 0 {
		return constants.DefaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
