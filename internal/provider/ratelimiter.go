package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket pacing calls to the free provider tiers.
type RateLimiter struct {
	mu          sync.Mutex
	available   int
	capacity    int
	refillEvery time.Duration
	lastRefill  time.Time
}

// NewRateLimiter allows capacity calls up front, refilling one token every
// refillEvery.
func NewRateLimiter(capacity int, refillEvery time.Duration) *RateLimiter {
	return &RateLimiter{
		available:   capacity,
		capacity:    capacity,
		refillEvery: refillEvery,
		lastRefill:  time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.available > 0 {
			r.available--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.refillEvery):
		}
	}
}

func (r *RateLimiter) refill() {
	earned := int(time.Since(r.lastRefill) / r.refillEvery)
	if earned <= 0 {
		return
	}
	r.available += earned
	if r.available > r.capacity {
		r.available = r.capacity
	}
	r.lastRefill = r.lastRefill.Add(time.Duration(earned) * r.refillEvery)
}
