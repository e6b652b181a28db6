package resilience

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limited")

// LimiterOpts configures the token bucket rate limiter.
type LimiterOpts struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
	// Wait makes Call block for a token instead of failing fast.
	Wait bool
}

// Limiter gates calls through a token bucket.
type Limiter struct {
	lim  *rate.Limiter
	wait bool
}

// NewLimiter creates a token bucket rate limiter.
func NewLimiter(opts LimiterOpts) *Limiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst), wait: opts.Wait}
}

// Allow checks if a request is allowed (non-blocking).
func (l *Limiter) Allow() bool { return l.lim.Allow() }

// Call runs f once a token is available. Without Wait it returns
// ErrRateLimited immediately when the bucket is empty.
func (l *Limiter) Call(ctx context.Context, f func(context.Context) error) error {
	if l.wait {
		if err := l.lim.Wait(ctx); err != nil {
			return errors.Join(ErrRateLimited, err)
		}
	} else if !l.Allow() {
		return ErrRateLimited
	}
	return f(ctx)
}
