// Package retry runs an operation under an explicit, testable retry policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is wrapped into the error returned by Do when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// BackoffFunc returns the delay after the given failed attempt (1-indexed).
type BackoffFunc func(attempt int) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// Retryable reports whether err warrants another attempt. Nil retries every error.
	Retryable func(err error) bool
	// Sleep defaults to a context-aware timer.
	Sleep SleepFunc
}

// Linear waits attempt*step: 2s, 4s, 6s... for step=2s.
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Table picks delays[attempt-1], clamping to the last entry.
func Table(delays []time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if len(delays) == 0 {
			return 0
		}
		i := attempt - 1
		if i < 0 {
			i = 0
		}
		if i >= len(delays) {
			i = len(delays) - 1
		}
		return delays[i]
	}
}

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it returns nil, returns a non-retryable error, or MaxAttempts
// calls were made. attempt is 1-indexed. No delay follows the final attempt.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		var d time.Duration
		if p.Backoff != nil {
			d = p.Backoff(attempt)
		}
		if serr := sleep(ctx, d); serr != nil {
			return fmt.Errorf("retry interrupted after attempt %d: %w", attempt, serr)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, err)
}
