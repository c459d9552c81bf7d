package storage

import (
	"context"
	"time"

	"github.com/growthmate/agent-server/internal/logger"
)

// Terminal selects what happens once attempts are exhausted or a
// non-retryable error is seen.
type Terminal int

const (
	// Sentinel logs the failure and hands the caller a zero value with a nil
	// error. Used for single-record reads and writes where a chat turn must
	// not be aborted by persistence trouble.
	Sentinel Terminal = iota
	// Escalate returns the last error to the caller. Used for multi-record
	// list reads whose absence the caller has to know about.
	Escalate
)

// Policy is a reusable retry policy for storage calls.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
	Terminal    Terminal
}

// DefaultPolicy returns the storage policy: two attempts, a fixed escalating
// delay of 100ms times the attempt number between attempts, retrying only the
// transient connection-ended class.
func DefaultPolicy(t Terminal) Policy {
	return Policy{
		MaxAttempts: 2,
		Backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
		Retryable:   IsTransient,
		Terminal:    t,
	}
}

// Do runs fn under the policy. Non-retryable errors go straight to the
// terminal behavior without further attempts.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

attempts:
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !p.Retryable(err) {
			logger.L.Error("storage call failed", "op", op, "attempt", attempt, "error", err)
			break
		}
		if attempt == p.MaxAttempts {
			logger.L.Error("storage call failed after retries", "op", op, "attempts", attempt, "error", err)
			break
		}
		logger.L.Warn("transient storage error, retrying", "op", op, "attempt", attempt, "error", err)

		select {
		case <-time.After(p.Backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
			break attempts
		}
	}

	if p.Terminal == Escalate {
		return zero, lastErr
	}
	return zero, nil
}
