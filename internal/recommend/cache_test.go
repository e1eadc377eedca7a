// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"fmt"
	"testing"
	"time"
)

func testCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:        true,
		ColdStartTTL:   3 * time.Minute,
		LowActivityTTL: 4 * time.Minute,
		DefaultTTL:     5 * time.Minute,
		MaxEntries:     5,
	}
}

func testItems(ids ...string) []RecommendationItem {
	out := make([]RecommendationItem, len(ids))
	for i, id := range ids {
		out[i] = RecommendationItem{ProjectID: id, Score: 0.5}
	}
	return out
}

func TestResultCache_PutGet(t *testing.T) {
	c := newResultCache(testCacheConfig())

	c.put("k1", cacheEntry{userID: "u1", items: testItems("a", "b")}, 50)

	entry, ok := c.get("k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(entry.items) != 2 || entry.items[0].ProjectID != "a" {
		t.Errorf("cached items = %v, want [a b]", entry.items)
	}

	// The returned slice is a copy; mutating it must not corrupt the cache.
	entry.items[0].ProjectID = "mutated"
	again, _ := c.get("k1")
	if again.items[0].ProjectID != "a" {
		t.Error("cache entry was mutated through a returned copy")
	}

	if _, ok := c.get("missing"); ok {
		t.Error("unexpected hit for missing key")
	}
}

func TestResultCache_GetCopiesNestedSlices(t *testing.T) {
	c := newResultCache(testCacheConfig())

	items := testItems("a", "b")
	items[0].Sources = []ProviderID{ProviderFECF, ProviderNCF}
	c.put("k1", cacheEntry{
		userID:    "u1",
		items:     items,
		providers: []ProviderID{ProviderFECF, ProviderNCF},
	}, 50)

	entry, ok := c.get("k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	entry.items[0].Sources[0] = ProviderTrending
	entry.providers[0] = ProviderTrending

	again, _ := c.get("k1")
	if again.items[0].Sources[0] != ProviderFECF {
		t.Error("cached item sources were mutated through a returned copy")
	}
	if again.providers[0] != ProviderFECF {
		t.Error("cached providers were mutated through a returned copy")
	}
}

func TestResultCache_TTLTiers(t *testing.T) {
	cfg := testCacheConfig()
	c := newResultCache(cfg)

	tests := []struct {
		name      string
		key       string
		coldStart bool
		count     int
		wantTTL   time.Duration
	}{
		{"cold start gets shortest ttl", "cold", true, 0, cfg.ColdStartTTL},
		{"low activity gets middle ttl", "low", false, 5, cfg.LowActivityTTL},
		{"established gets default ttl", "warm", false, 50, cfg.DefaultTTL},
		{"cold start wins over count", "cold2", true, 50, cfg.ColdStartTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.put(tt.key, cacheEntry{userID: "u", coldStart: tt.coldStart}, tt.count)

			c.mu.RLock()
			entry := c.entries[tt.key]
			c.mu.RUnlock()

			ttl := entry.expiresAt.Sub(entry.createdAt)
			if ttl != tt.wantTTL {
				t.Errorf("ttl = %v, want %v", ttl, tt.wantTTL)
			}
		})
	}
}

func TestResultCache_Expiry(t *testing.T) {
	cfg := testCacheConfig()
	cfg.ColdStartTTL = time.Millisecond
	c := newResultCache(cfg)

	c.put("k1", cacheEntry{userID: "u1", coldStart: true}, 0)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.get("k1"); ok {
		t.Error("expired entry must not be served")
	}
}

func TestResultCache_MaxEntriesEviction(t *testing.T) {
	c := newResultCache(testCacheConfig())

	for i := 0; i < 5; i++ {
		c.put(fmt.Sprintf("k%d", i), cacheEntry{userID: "u"}, 50)
		time.Sleep(time.Millisecond)
	}
	if c.len() != 5 {
		t.Fatalf("len = %d, want 5", c.len())
	}

	// At capacity with nothing expired: the oldest entry is evicted.
	c.put("k5", cacheEntry{userID: "u"}, 50)
	if c.len() != 5 {
		t.Errorf("len = %d after eviction, want 5", c.len())
	}
	if _, ok := c.get("k0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.get("k5"); !ok {
		t.Error("new entry should be present after eviction")
	}
}

func TestResultCache_Flush(t *testing.T) {
	c := newResultCache(testCacheConfig())
	c.put("k1", cacheEntry{userID: "u1"}, 50)
	c.put("k2", cacheEntry{userID: "u2"}, 50)

	stats := c.flush()
	if stats.Cleared != 2 || stats.Remaining != 0 {
		t.Errorf("flush = %+v, want 2 cleared / 0 remaining", stats)
	}
	if c.len() != 0 {
		t.Errorf("len = %d after flush, want 0", c.len())
	}
}

func TestResultCache_PurgeExpired(t *testing.T) {
	cfg := testCacheConfig()
	cfg.ColdStartTTL = time.Millisecond
	c := newResultCache(cfg)

	c.put("stale", cacheEntry{userID: "u1", coldStart: true}, 0)
	c.put("live", cacheEntry{userID: "u2"}, 50)
	time.Sleep(5 * time.Millisecond)

	stats := c.purgeExpired()
	if stats.Cleared != 1 || stats.Remaining != 1 {
		t.Errorf("purgeExpired = %+v, want 1 cleared / 1 remaining", stats)
	}
	if _, ok := c.get("live"); !ok {
		t.Error("unexpired entry must survive a purge")
	}
}

func TestResultCache_InvalidateUser(t *testing.T) {
	c := newResultCache(testCacheConfig())
	c.put("u1-n5", cacheEntry{userID: "u1"}, 50)
	c.put("u1-n10", cacheEntry{userID: "u1"}, 50)
	c.put("u2-n5", cacheEntry{userID: "u2"}, 50)

	stats := c.invalidateUser("u1")
	if stats.Cleared != 2 || stats.Remaining != 1 {
		t.Errorf("invalidateUser = %+v, want 2 cleared / 1 remaining", stats)
	}
	if _, ok := c.get("u2-n5"); !ok {
		t.Error("other users' entries must survive invalidation")
	}
}

func TestCacheKey(t *testing.T) {
	base := Request{UserID: "u1", N: 10, ExcludeKnown: true, Category: "defi", Chain: "ethereum"}

	if cacheKey(base) != cacheKey(base) {
		t.Error("identical requests must share a key")
	}

	upper := base
	upper.Category = "DeFi"
	if cacheKey(base) != cacheKey(upper) {
		t.Error("category case must not change the key")
	}

	variants := []Request{
		{UserID: "u2", N: 10, ExcludeKnown: true, Category: "defi", Chain: "ethereum"},
		{UserID: "u1", N: 20, ExcludeKnown: true, Category: "defi", Chain: "ethereum"},
		{UserID: "u1", N: 10, ExcludeKnown: false, Category: "defi", Chain: "ethereum"},
		{UserID: "u1", N: 10, ExcludeKnown: true, Category: "gaming", Chain: "ethereum"},
		{UserID: "u1", N: 10, ExcludeKnown: true, Category: "defi", Chain: "solana"},
		{UserID: "u1", N: 10, ExcludeKnown: true, Category: "defi", Chain: "ethereum", Strict: true},
	}
	for i, v := range variants {
		if cacheKey(base) == cacheKey(v) {
			t.Errorf("variant %d unexpectedly shares the base key", i)
		}
	}
}
