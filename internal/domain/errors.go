package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RateLimitedError is returned when the upstream answered 429. It is never
// retried server side; RetryAfter is handed to the caller.
type RateLimitedError struct {
	RetryAfter time.Duration
	Endpoint   string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("upstream rate limited on %s, retry after %s", e.Endpoint, e.RetryAfter)
}

func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
