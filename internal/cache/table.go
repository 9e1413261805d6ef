package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/logger"
	"invoiceqa/internal/metrics"
)

// DefaultTTL is the snapshot lifetime when none is configured
const DefaultTTL = 10 * time.Minute

type memEntry struct {
	table   ledger.Table
	expires time.Time
}

// TableCache stores ledger snapshots under string keys
type TableCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
	log    zerolog.Logger

	mu  sync.RWMutex
	mem map[string]memEntry
}

// NewTableCache creates a TableCache. A nil client keeps snapshots in memory.
func NewTableCache(client *redis.Client, ttl time.Duration, prefix string) *TableCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TableCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		now:    time.Now,
		log:    logger.WithComponent("cache"),
		mem:    make(map[string]memEntry),
	}
}

func (c *TableCache) key(name string) string {
	return c.prefix + "table:" + name
}

// Get returns the snapshot stored under name, or ErrMiss
func (c *TableCache) Get(ctx context.Context, name string) (ledger.Table, error) {
	if c.client != nil {
		val, err := c.client.Get(ctx, c.key(name)).Bytes()
		switch {
		case err == nil:
			var t ledger.Table
			if err := json.Unmarshal(val, &t); err == nil {
				metrics.CacheLookups.WithLabelValues("table", "hit").Inc()
				return t, nil
			}
			c.log.Warn().Str("key", c.key(name)).Msg("Discarding unreadable cached table")
		case errors.Is(err, redis.Nil):
		default:
			c.log.Warn().Err(err).Msg("Redis get failed, using memory cache")
		}
	}

	c.mu.RLock()
	entry, ok := c.mem[name]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		metrics.CacheLookups.WithLabelValues("table", "hit").Inc()
		return entry.table, nil
	}

	metrics.CacheLookups.WithLabelValues("table", "miss").Inc()
	return nil, ErrMiss
}

// Set stores t under name for the configured TTL. The memory copy is always
// written; a Redis failure is returned after it.
func (c *TableCache) Set(ctx context.Context, name string, t ledger.Table) error {
	const op = "Set"

	c.mu.Lock()
	c.mem[name] = memEntry{table: t, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%s: marshal table: %w", op, err)
	}
	if err := c.client.Set(ctx, c.key(name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: redis set: %w", op, err)
	}
	return nil
}

// Invalidate drops the snapshot stored under name
func (c *TableCache) Invalidate(ctx context.Context, name string) error {
	c.mu.Lock()
	delete(c.mem, name)
	c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key(name)).Err(); err != nil {
		return fmt.Errorf("Invalidate: redis del: %w", err)
	}
	return nil
}

// TableReader loads a fresh ledger snapshot
type TableReader interface {
	ReadTable(ctx context.Context) (ledger.Table, error)
}

// Source serves a TableReader through a TableCache. Concurrent misses share
// one load.
type Source struct {
	cache  *TableCache
	name   string
	reader TableReader
	group  singleflight.Group
	log    zerolog.Logger
}

// NewSource caches reader's table under name
func NewSource(cache *TableCache, name string, reader TableReader) *Source {
	return &Source{
		cache:  cache,
		name:   name,
		reader: reader,
		log:    logger.WithComponent("source"),
	}
}

// ReadTable returns the cached snapshot, loading it on a miss. Concurrent
// misses share one load, which outlives the cancellation of the caller that
// started it.
func (s *Source) ReadTable(ctx context.Context) (ledger.Table, error) {
	if t, err := s.cache.Get(ctx, s.name); err == nil {
		return t, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(s.name, func() (interface{}, error) {
		start := time.Now()
		t, err := s.reader.ReadTable(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, s.name, t); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache table")
		}
		s.log.Info().
			Str("table", s.name).
			Int("rows", len(t)).
			Dur("duration", time.Since(start)).
			Msg("Table loaded")
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ReadTable: %w", err)
	}
	return v.(ledger.Table), nil
}

// Invalidate forces the next ReadTable to load
func (s *Source) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, s.name)
}
