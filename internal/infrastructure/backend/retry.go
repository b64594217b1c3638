package backend

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryPolicy consolidates the retry/timeout behavior shared by every
// idempotent backend read: bounded attempts, exponential backoff with a
// cap, and a pluggable retryable predicate. Mutating calls (login, geo
// sync) never go through a policy with more than one attempt — the caller
// decides whether to resubmit.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(status int, err error) bool
}

// NoRetry is the single-attempt policy used for mutating calls.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, Retryable: func(int, error) bool { return false }}
}

// NewRetryPolicy builds the standard idempotent-read policy.
func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		Retryable:   DefaultRetryable,
	}
}

// DefaultRetryable treats transport errors, timeouts, throttling, and
// server errors as retryable. Client errors (4xx other than 429) are not.
func DefaultRetryable(status int, err error) bool {
	if err != nil {
		return true
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

// Do runs op until it succeeds, exhausts attempts, or the context is
// cancelled. op returns the HTTP status it observed (0 for transport
// failures) and an error; a nil error with a 2xx status ends the loop.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) (int, error)) error {
	var lastErr error

	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		status, err := op(ctx)
		if err == nil && status >= 200 && status < 300 {
			return nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = &StatusError{Code: status}
		}

		if attempt == p.MaxAttempts || p.Retryable == nil || !p.Retryable(status, err) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}

// IsTimeout reports whether err was caused by the per-call timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
