// Package cache provides the Redis access layer for sessions, cached posts and rate limits.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent or holds an unreadable value.
var ErrCacheMiss = errors.New("cache miss")

// Options tunes the Redis connection pool. Zero fields keep the defaults.
type Options struct {
	PoolSize     int
	MinIdleConns int
}

const (
	defaultPoolSize        = 20
	defaultMinIdleConns    = 2
	defaultPoolTimeout     = 4 * time.Second
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Cache stores sessions, post snapshots and rate-limit buckets in Redis.
// The activity stream shares its client through Client.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection with a PING.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	opt, err := clientOptions(redisURL, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

func clientOptions(redisURL string, opts Options) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = defaultPoolSize
	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	opt.MinIdleConns = defaultMinIdleConns
	if opts.MinIdleConns > 0 {
		opt.MinIdleConns = min(opts.MinIdleConns, opt.PoolSize)
	}
	opt.PoolTimeout = defaultPoolTimeout
	opt.ConnMaxIdleTime = defaultConnMaxIdleTime

	return opt, nil
}

// NewWithClient wraps an existing Redis client. Used by integration tests.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping checks Redis connectivity for the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for the activity stream.
func (c *Cache) Client() *redis.Client {
	return c.client
}
