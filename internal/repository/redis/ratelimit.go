package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one rate limit check, carrying what the
// API reflects back in X-RateLimit-* headers.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter throttles API calls per user over fixed one-minute
// windows. The window start is part of the key, so counters roll over
// by construction and the TTL is only cleanup.
type RateLimiter struct {
	client *Client
	limit  int
}

// NewRateLimiter creates a new rate limiter. Burst is headroom on top
// of the per-minute budget.
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  requestsPerMinute + burst,
	}
}

func userWindowKey(userID uuid.UUID, windowStart time.Time) string {
	return fmt.Sprintf("rl:user:%s:%d", userID, windowStart.Unix())
}

// AllowUser counts one call against the user's current window
func (r *RateLimiter) AllowUser(ctx context.Context, userID uuid.UUID) (Decision, error) {
	windowStart := time.Now().Truncate(time.Minute)
	key := userWindowKey(userID, windowStart)

	pipe := r.client.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Decision{}, fmt.Errorf("failed to check rate limit: %w", err)
	}

	count := int(incr.Val())
	decision := Decision{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: r.limit - count,
		ResetAt:   windowStart.Add(time.Minute),
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}

	return decision, nil
}

// Reset clears the user's current window
func (r *RateLimiter) Reset(ctx context.Context, userID uuid.UUID) error {
	windowStart := time.Now().Truncate(time.Minute)
	return r.client.rdb.Del(ctx, userWindowKey(userID, windowStart)).Err()
}
