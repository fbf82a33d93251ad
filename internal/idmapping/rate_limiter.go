package idmapping

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces out requests to the ID mapping service
type RateLimiter interface {
	Wait(ctx context.Context) error
	// Backoff holds every request until the given time, as asked for by a
	// Retry-After header.
	Backoff(until time.Time)
}

// intervalLimiter implements RateLimiter with a minimum gap between calls
type intervalLimiter struct {
	mu           sync.Mutex
	minDelay     time.Duration
	lastCall     time.Time
	blockedUntil time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(minDelay time.Duration) RateLimiter {
	return &intervalLimiter{minDelay: minDelay}
}

// Wait waits until it's safe to make another request. Each caller reserves
// its slot before sleeping, so concurrent callers are spaced minDelay apart.
func (r *intervalLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	next := time.Now()
	if slot := r.lastCall.Add(r.minDelay); slot.After(next) {
		next = slot
	}
	if r.blockedUntil.After(next) {
		next = r.blockedUntil
	}
	r.lastCall = next
	r.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff blocks requests until until
func (r *intervalLimiter) Backoff(until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if until.After(r.blockedUntil) {
		r.blockedUntil = until
	}
}
