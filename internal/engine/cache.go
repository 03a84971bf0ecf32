package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// reportCache keeps tool outputs in process memory (L1) and, when a Redis URL
// is configured, in Redis (L2) so restarts and replicas share them.
var reportCache *tieredCache

var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	rdb        *redis.Client // nil = L1 only
	ttl        time.Duration
	maxEntries int
	stop       chan struct{}
}

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

func (e cacheEntry) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.storedAt) >= ttl
}

// InitCache replaces the process cache. Call after Init().
// redisURL can be empty to disable L2. A ttl <= 0 disables caching entirely.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	if reportCache != nil {
		close(reportCache.stop)
		if reportCache.rdb != nil {
			_ = reportCache.rdb.Close()
		}
		reportCache = nil
	}
	if ttl <= 0 {
		slog.Info("cache: disabled")
		return
	}

	c := &tieredCache{
		entries:    make(map[string]cacheEntry),
		rdb:        connectRedis(redisURL),
		ttl:        ttl,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	reportCache = c
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))

	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	go c.sweepEvery(cleanupInterval)
}

// connectRedis returns a pinged client, or nil when redisURL is empty or unusable.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		return nil
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
		_ = rdb.Close()
		return nil
	}
	slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
	return rdb
}

// CacheKey hashes parts into a short deterministic key with the "yp:" prefix.
func CacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "yp:" + hex.EncodeToString(sum[:12])
}

// CacheLoadJSON decodes the cached value for key.
// A miss or an undecodable entry returns the zero value and false.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var out T
	c := reportCache
	if c == nil {
		cacheMisses.Add(1)
		return out, false
	}
	data, ok := c.get(ctx, key)
	if ok {
		ok = json.Unmarshal(data, &out) == nil
	}
	if !ok {
		cacheMisses.Add(1)
		var zero T
		return zero, false
	}
	cacheHits.Add(1)
	return out, true
}

// CacheStoreJSON encodes v and stores it under key. Encoding errors are dropped.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	c := reportCache
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("cache: encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	c.set(ctx, key, data)
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// get reads L1, then L2. An L2 hit is copied into L1.
func (c *tieredCache) get(ctx context.Context, key string) ([]byte, bool) {
	now := time.Now()
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.expired(now, c.ttl) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if ok {
		return e.data, true
	}

	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("cache: L2 get failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	c.putLocal(key, data, now)
	return data, true
}

func (c *tieredCache) set(ctx context.Context, key string, data []byte) {
	c.putLocal(key, data, time.Now())
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Debug("cache: L2 set failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (c *tieredCache) putLocal(key string, data []byte, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, storedAt: now}
	c.evictLocked(key, now)
}

// evictLocked brings L1 back within maxEntries: expired entries go first,
// then the oldest ones. keep is never evicted.
func (c *tieredCache) evictLocked(keep string, now time.Time) {
	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return
	}
	c.sweepLocked(now)
	for len(c.entries) > c.maxEntries {
		var (
			oldestKey string
			oldestAt  time.Time
		)
		for k, e := range c.entries {
			if k == keep {
				continue
			}
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}

func (c *tieredCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if e.expired(now, c.ttl) {
			delete(c.entries, k)
		}
	}
}

func (c *tieredCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweepEvery drops expired L1 entries on each tick until the cache is replaced.
func (c *tieredCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.sweepLocked(time.Now())
			c.mu.Unlock()
		}
	}
}
