package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// RateWindow is one "limit:seconds" pair reported by the upstream.
type RateWindow struct {
	Limit  int           `json:"limit"`
	Count  int           `json:"count"`
	Window time.Duration `json:"window"`
}

func (w RateWindow) Remaining() int {
	if r := w.Limit - w.Count; r > 0 {
		return r
	}
	return 0
}

type RateLimitInfo struct {
	App       []RateWindow `json:"app"`
	Method    []RateWindow `json:"method"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Tightest returns the app window with the fewest remaining calls.
func (r RateLimitInfo) Tightest() (RateWindow, bool) {
	if len(r.App) == 0 {
		return RateWindow{}, false
	}
	best := r.App[0]
	for _, w := range r.App[1:] {
		if w.Remaining() < best.Remaining() {
			best = w
		}
	}
	return best, true
}

func (c *RiotClient) RateLimit() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *RiotClient) updateRateLimit(resp *fasthttp.Response) {
	app := parseRateWindows(string(resp.Header.Peek("X-App-Rate-Limit")), string(resp.Header.Peek("X-App-Rate-Limit-Count")))
	method := parseRateWindows(string(resp.Header.Peek("X-Method-Rate-Limit")), string(resp.Header.Peek("X-Method-Rate-Limit-Count")))
	if app == nil && method == nil {
		return
	}

	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	if app != nil {
		c.rateLimit.App = app
	}
	if method != nil {
		c.rateLimit.Method = method
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// parseRateWindows joins "20:1,100:120" limits with "3:1,40:120" counts
// on the window length.
func parseRateWindows(limits, counts string) []RateWindow {
	if limits == "" {
		return nil
	}
	used := make(map[int]int)
	for _, pair := range strings.Split(counts, ",") {
		n, secs, ok := splitPair(pair)
		if ok {
			used[secs] = n
		}
	}

	var windows []RateWindow
	for _, pair := range strings.Split(limits, ",") {
		limit, secs, ok := splitPair(pair)
		if !ok {
			continue
		}
		windows = append(windows, RateWindow{
			Limit:  limit,
			Count:  used[secs],
			Window: time.Duration(secs) * time.Second,
		})
	}
	return windows
}

func splitPair(pair string) (int, int, bool) {
	left, right, found := strings.Cut(strings.TrimSpace(pair), ":")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.Atoi(left)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(right)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
