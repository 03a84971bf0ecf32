package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

type cachedReport struct {
	Keyword string `json:"keyword"`
	Total   int    `json:"total"`
}

func useCache(t *testing.T, ttl time.Duration, maxEntries int) {
	t.Helper()
	InitCache("", ttl, maxEntries, time.Minute)
	t.Cleanup(func() { InitCache("", 0, 0, 0) })
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("youtube_today", "meditation", "date")
	if a != CacheKey("youtube_today", "meditation", "date") {
		t.Error("same parts must give the same key")
	}
	if a == CacheKey("youtube_today", "yoga", "date") {
		t.Error("different parts gave the same key")
	}
	if !strings.HasPrefix(a, "yp:") || len(a) != 3+24 {
		t.Errorf("key = %q, want yp: + 24 hex chars", a)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	useCache(t, time.Minute, 100)
	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheLoadJSON[cachedReport](ctx, key); ok {
		t.Error("expected miss on empty cache")
	}
	CacheStoreJSON(ctx, key, cachedReport{Keyword: "meditation", Total: 3})

	got, ok := CacheLoadJSON[cachedReport](ctx, key)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got != (cachedReport{Keyword: "meditation", Total: 3}) {
		t.Errorf("got %+v", got)
	}
}

func TestCacheWrongTypeIsMiss(t *testing.T) {
	useCache(t, time.Minute, 100)
	ctx := context.Background()
	key := CacheKey("test", "type")

	CacheStoreJSON(ctx, key, []int{1, 2, 3})
	if _, ok := CacheLoadJSON[cachedReport](ctx, key); ok {
		t.Error("an entry that does not decode into T must be a miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	useCache(t, time.Millisecond, 100)
	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheStoreJSON(ctx, key, cachedReport{Total: 1})
	time.Sleep(5 * time.Millisecond)
	if _, ok := CacheLoadJSON[cachedReport](ctx, key); ok {
		t.Error("expected miss after ttl")
	}
}

func TestCacheDisabled(t *testing.T) {
	useCache(t, 0, 100)
	ctx := context.Background()
	key := CacheKey("test", "disabled")

	CacheStoreJSON(ctx, key, cachedReport{Total: 1})
	if _, ok := CacheLoadJSON[cachedReport](ctx, key); ok {
		t.Error("expected miss with caching disabled")
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	useCache(t, time.Minute, 3)
	ctx := context.Background()

	keys := make([]string, 5)
	for i := range keys {
		keys[i] = CacheKey("evict", fmt.Sprintf("item-%d", i))
		CacheStoreJSON(ctx, keys[i], cachedReport{Total: i})
		time.Sleep(time.Millisecond)
	}

	if n := reportCache.len(); n != 3 {
		t.Errorf("entries = %d, want 3", n)
	}
	if _, ok := CacheLoadJSON[cachedReport](ctx, keys[0]); ok {
		t.Error("oldest entry should have been evicted")
	}
	if got, ok := CacheLoadJSON[cachedReport](ctx, keys[4]); !ok || got.Total != 4 {
		t.Errorf("newest entry = %+v, %v", got, ok)
	}
}

func TestCacheStats(t *testing.T) {
	useCache(t, time.Minute, 100)
	cacheHits.Store(0)
	cacheMisses.Store(0)
	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheLoadJSON[cachedReport](ctx, key)
	CacheStoreJSON(ctx, key, cachedReport{Total: 1})
	CacheLoadJSON[cachedReport](ctx, key)

	hits, misses := CacheStats()
	if hits != 1 || misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", hits, misses)
	}
}
