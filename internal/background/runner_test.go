package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunnerDetachesFromCallerContext(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	var ctxErr atomic.Value
	r.Go(ctx, "detached", func(taskCtx context.Context) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		if err := taskCtx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return nil
	})

	<-started
	cancel()

	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if v := ctxErr.Load(); v != nil {
		t.Fatalf("task context cancelled with caller: %v", v)
	}
}

func TestRunnerSwallowsFailuresAndPanics(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	var ran atomic.Int32

	r.Go(context.Background(), "fails", func(context.Context) error {
		ran.Add(1)
		return errors.New("boom")
	})
	r.Go(context.Background(), "panics", func(context.Context) error {
		ran.Add(1)
		panic("boom")
	})

	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := ran.Load(); got != 2 {
		t.Fatalf("ran = %d, want 2", got)
	}
}

func TestRunnerTaskTimeout(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	r.timeout = 10 * time.Millisecond

	var deadlineHit atomic.Bool
	r.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		deadlineHit.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})

	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !deadlineHit.Load() {
		t.Fatal("task was not bounded by its timeout")
	}
}
