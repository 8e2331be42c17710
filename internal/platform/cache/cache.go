// Package cache provides the Dragonfly/Redis client backing request rate
// limiting.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

// Cache holds the connection the rate limiters count requests on.
type Cache struct {
	Client *redis.Client
}

// Options parses a redis:// or rediss:// URL and applies the client timeouts.
func Options(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout
	return opts, nil
}

// New connects to the cache at url and pings it once.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := Options(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache %s: %w", opts.Addr, err)
	}
	return &Cache{Client: client}, nil
}

func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck pings the cache; GET /readyz reports it.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// PerMinuteLimiter returns a limiter allowing perMinute requests per key in
// each clock minute. Zero or less disables limiting.
func (c *Cache) PerMinuteLimiter(perMinute int) *RateLimiter {
	return NewRateLimiter(c.Client, perMinute, time.Minute)
}
