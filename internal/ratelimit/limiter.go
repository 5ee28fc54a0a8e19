// Package ratelimit paces outbound fetches against the archive source.
// A single Limiter is shared by every worker in the process, so the
// configured interval holds globally no matter how many workers run.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between permits
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// New returns a Limiter that grants one permit per interval with a burst of
// one, so consecutive grants are always at least interval apart. An interval
// of zero or less disables pacing entirely.
func New(interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Limiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until a permit is available or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the configured spacing between permits
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
