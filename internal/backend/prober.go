package backend

import (
	"context"
	"log"
	"time"
)

// Prober gates startup on backend readiness.
type Prober struct {
	client   *Client
	interval time.Duration
	attempts int

	sleep func(time.Duration) // test hook
}

// NewProber creates a prober polling every interval, up to attempts times.
func NewProber(client *Client, interval time.Duration, attempts int) *Prober {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if attempts <= 0 {
		attempts = 60
	}
	return &Prober{client: client, interval: interval, attempts: attempts}
}

// Wait polls the liveness endpoint until the backend is ready, the attempt
// budget is exhausted, or ctx is cancelled. It returns the final readiness.
func (p *Prober) Wait(ctx context.Context) bool {
	sleep := p.sleep
	if sleep == nil {
		sleep = func(d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		}
	}

	for attempt := 0; attempt < p.attempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		if p.client.CheckHealth(ctx) {
			return true
		}
		log.Printf("backend: not ready yet (attempt %d/%d)", attempt+1, p.attempts)
		sleep(p.interval)
	}

	return false
}
