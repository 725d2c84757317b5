package ratelimit

import "context"

// RateLimiter throttles reminder deliveries per winery so one tenant's
// backlog cannot starve the rest.
type RateLimiter interface {
	Allow(ctx context.Context, wineryID string) (bool, error)
	Wait(ctx context.Context, wineryID string) error
}
