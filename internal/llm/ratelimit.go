// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited paces calls to the wrapped Generator with a token bucket.
// One limiter is shared by every pipeline stage, so concurrent runs in the
// server draw from the same per-minute quota.
type RateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of one.
func NewRateLimited(next Generator, perMinute float64) *RateLimited {
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), 1),
	}
}

// Generate waits for a token, then delegates. A cancelled wait returns the
// context error without calling the model.
func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Generate(ctx, prompt)
}
