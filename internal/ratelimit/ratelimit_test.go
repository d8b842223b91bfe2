package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestFixedWindowRejectsAfterLimit(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewFixedWindow(NewMemoryCounterStore(), 3, time.Minute)
	l.now = clock.Now

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("Allow #%d rejected", i)
		}
		if d.Remaining != 3-i {
			t.Fatalf("remaining = %d, want %d", d.Remaining, 3-i)
		}
	}

	d, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth call allowed, want rejected")
	}
	if want := time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC); !d.ResetAt.Equal(want) {
		t.Fatalf("ResetAt = %s, want %s", d.ResetAt, want)
	}

	other, _ := l.Allow(ctx, "5.6.7.8")
	if !other.Allowed {
		t.Fatal("independent key was rejected")
	}
}

func TestFixedWindowResetsWithWindow(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC)}
	l := NewFixedWindow(NewMemoryCounterStore(), 1, time.Minute)
	l.now = clock.Now

	if d, _ := l.Allow(ctx, "k"); !d.Allowed {
		t.Fatal("first call rejected")
	}
	if d, _ := l.Allow(ctx, "k"); d.Allowed {
		t.Fatal("second call in window allowed")
	}

	clock.Advance(30 * time.Second)
	if d, _ := l.Allow(ctx, "k"); !d.Allowed {
		t.Fatal("first call of next window rejected")
	}
}

func TestFixedWindowConcurrentCount(t *testing.T) {
	ctx := context.Background()
	l := NewFixedWindow(NewMemoryCounterStore(), 50, time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, "k")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Fatalf("allowed = %d, want 50", allowed)
	}
}

func TestPacerSleepsForRemainderOfWindow(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var slept []time.Duration

	p := NewPacer(10, time.Minute, zerolog.Nop())
	p.now = clock.Now
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock.Advance(d)
		return nil
	}

	ctx := context.Background()
	if err := p.Observe(ctx, 4); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	clock.Advance(15 * time.Second)
	if err := p.Observe(ctx, 5); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if len(slept) != 0 {
		t.Fatalf("slept %v under budget", slept)
	}

	clock.Advance(5 * time.Second)
	if err := p.Observe(ctx, 1); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if len(slept) != 1 || slept[0] != 40*time.Second {
		t.Fatalf("slept = %v, want [40s]", slept)
	}

	if err := p.Observe(ctx, 9); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if len(slept) != 1 {
		t.Fatalf("fresh window slept again: %v", slept)
	}
}

func TestPacerObserveHonoursCancellation(t *testing.T) {
	p := NewPacer(1, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Observe(ctx, 1); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
