package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter kept in Redis/Dragonfly.
// It only counts requests; no computed result is ever cached.
type RateLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// NewRateLimiter allows limit requests per key in each window. A limit of
// zero or less disables limiting.
func NewRateLimiter(client redis.Cmdable, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "aps:ratelimit:",
		now:    time.Now,
	}
}

// Limit returns the configured requests per window.
func (l *RateLimiter) Limit() int {
	return l.limit
}

// Allow counts one request for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	start := l.now().Truncate(l.window)
	reset := start.Add(l.window)
	if l.limit <= 0 {
		return Decision{Allowed: true, ResetAt: reset}, nil
	}

	k := l.key(key, start)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("counting request: %w", err)
	}

	count := int(incr.Val())
	return Decision{
		Allowed:   count <= l.limit,
		Remaining: max(l.limit-count, 0),
		ResetAt:   reset,
	}, nil
}

func (l *RateLimiter) key(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart.Unix())
}
