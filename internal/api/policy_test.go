package api

import (
	"context"
	"errors"
	"fmt"
	"summoner-tracker/internal/domain"
	"testing"
	"time"
)

var fastRetry = Policy{Timeout: time.Second, MaxRetries: 2, Backoff: time.Millisecond}

func TestCallRetriesUnavailable(t *testing.T) {
	attempts := 0
	got, err := Call(context.Background(), fastRetry, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", fmt.Errorf("flaky: %w", domain.ErrUpstreamUnavailable)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "ok" || attempts != 3 {
		t.Fatalf("got %q after %d attempts, want ok after 3", got, attempts)
	}
}

func TestCallGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	_, err := Call(context.Background(), fastRetry, func(ctx context.Context) (int, error) {
		attempts++
		return 0, domain.ErrUpstreamUnavailable
	})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestCallDoesNotRetryTerminalErrors(t *testing.T) {
	for _, terminal := range []error{
		domain.ErrNotFound,
		&domain.RateLimitedError{RetryAfter: time.Second},
	} {
		attempts := 0
		_, err := Call(context.Background(), fastRetry, func(ctx context.Context) (int, error) {
			attempts++
			return 0, terminal
		})
		if !errors.Is(err, terminal) {
			t.Fatalf("err = %v, want %v", err, terminal)
		}
		if attempts != 1 {
			t.Fatalf("attempts = %d for %v, want 1", attempts, terminal)
		}
	}
}

func TestCallAppliesAttemptTimeout(t *testing.T) {
	p := Policy{Timeout: 20 * time.Millisecond}
	_, err := Call(context.Background(), p, func(ctx context.Context) (int, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("attempt context has no deadline")
		}
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
