package backend

import (
	"context"
	"log"
	"time"
)

const (
	baseRetryDelay = 1000 * time.Millisecond
	maxRetryDelay  = 5000 * time.Millisecond
)

// RetryOptions controls RetryWithBackoff. Sleep and Now exist for tests;
// zero values fall back to the real clock.
type RetryOptions struct {
	MaxRetries  int
	MaxDuration time.Duration

	Sleep func(time.Duration)
	Now   func() time.Time
}

// RetryWithBackoff retries fn on any failure with exponential backoff: base
// 1s, doubling per attempt, capped at 5s. It aborts with a RetryTimeoutError
// once elapsed wall time exceeds MaxDuration regardless of remaining
// attempts, and returns the last error once MaxRetries is exhausted.
func RetryWithBackoff(ctx context.Context, fn func() error, opts RetryOptions) error {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 10
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 120 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = func(d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		}
	}

	start := now()
	var lastErr error

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if now().Sub(start) > opts.MaxDuration {
			return &RetryTimeoutError{MaxDuration: opts.MaxDuration}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		delay := baseRetryDelay << attempt
		if delay > maxRetryDelay || delay <= 0 {
			delay = maxRetryDelay
		}
		log.Printf("backend: attempt %d failed, retrying in %v: %v", attempt+1, delay, lastErr)
		sleep(delay)
	}

	return lastErr
}
