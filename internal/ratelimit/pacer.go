package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pacer is advisory self-throttling for batch jobs. Callers report how
// many upstream calls they made; once the budget for the current window
// is used up, Observe sleeps until the window ends.
type Pacer struct {
	budget int
	window time.Duration
	logger zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	windowStart time.Time
	used        int
}

func NewPacer(budget int, window time.Duration, logger zerolog.Logger) *Pacer {
	return &Pacer{
		budget: budget,
		window: window,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func (p *Pacer) Observe(ctx context.Context, calls int) error {
	p.mu.Lock()
	now := p.now()
	if p.windowStart.IsZero() || now.Sub(p.windowStart) >= p.window {
		p.windowStart = now
		p.used = 0
	}
	p.used += calls
	if p.used < p.budget {
		p.mu.Unlock()
		return nil
	}

	wait := p.window - now.Sub(p.windowStart)
	used := p.used
	p.mu.Unlock()

	p.logger.Info().
		Int("calls", used).
		Int("budget", p.budget).
		Dur("sleep", wait).
		Msg("call budget spent, pausing until window resets")
	if err := p.sleep(ctx, wait); err != nil {
		return err
	}

	p.mu.Lock()
	p.windowStart = p.now()
	p.used = 0
	p.mu.Unlock()
	return nil
}

// Backoff sleeps for d, typically an upstream Retry-After, and starts a
// fresh window afterwards.
func (p *Pacer) Backoff(ctx context.Context, d time.Duration) error {
	p.logger.Warn().Dur("sleep", d).Msg("upstream rate limited batch, backing off")
	if err := p.sleep(ctx, d); err != nil {
		return err
	}

	p.mu.Lock()
	p.windowStart = p.now()
	p.used = 0
	p.mu.Unlock()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
