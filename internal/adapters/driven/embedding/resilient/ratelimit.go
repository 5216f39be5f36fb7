package resilient

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration for embedding calls.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit. Zero means unlimited.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// RateLimiter throttles embedding calls with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter. A non-positive rate disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
