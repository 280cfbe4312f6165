package backend

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, RetryOptions{MaxRetries: 5, Sleep: func(time.Duration) {}})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryDelaySequence(t *testing.T) {
	var delays []time.Duration
	errBoom := errors.New("boom")

	err := RetryWithBackoff(context.Background(), func() error {
		return errBoom
	}, RetryOptions{
		MaxRetries: 6,
		Sleep:      func(d time.Duration) { delays = append(delays, d) },
	})

	if !errors.Is(err, errBoom) {
		t.Fatalf("expected last error, got %v", err)
	}
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(delays))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestRetryWallClockTimeout(t *testing.T) {
	clock := time.Unix(1756400000, 0)
	now := func() time.Time { return clock }
	calls := 0

	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("down")
	}, RetryOptions{
		MaxRetries:  100,
		MaxDuration: 10 * time.Second,
		Now:         now,
		Sleep:       func(d time.Duration) { clock = clock.Add(d) },
	})

	var timeoutErr *RetryTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected RetryTimeoutError, got %v", err)
	}
	if timeoutErr.MaxDuration != 10*time.Second {
		t.Fatalf("unexpected duration: %v", timeoutErr.MaxDuration)
	}
	// 1+2+4+5 = 12s of simulated sleep crosses the 10s budget on attempt 5.
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := RetryWithBackoff(ctx, func() error {
		calls++
		cancel()
		return errors.New("down")
	}, RetryOptions{MaxRetries: 10, Sleep: func(time.Duration) {}})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
