// Package cache keeps ledger snapshots and chat histories between requests.
//
// Redis is used when an address is configured; otherwise, and whenever Redis
// is unreachable, entries live in process memory.
//
// Environment Variables:
//   - REDIS_ADDR: Redis address (host:port); empty keeps everything in memory
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number
//   - CACHE_TTL: lifetime of a cached ledger snapshot
//   - CACHE_PREFIX: prefix of every Redis key
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Config holds Redis connection and key settings
type Config struct {
	Addr     string        // empty disables Redis
	Password string        // Redis password
	DB       int           // Redis database number
	TTL      time.Duration // snapshot lifetime
	Prefix   string        // key prefix, e.g. "invoiceqa:"
}

// NewRedisClient returns a client for cfg, or nil when no address is set
func NewRedisClient(cfg Config) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// Ping tests the Redis connection; a nil client is always healthy
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
