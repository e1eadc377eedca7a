// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

package recommend

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// resultCache is the short-TTL memo of final recommendation lists.
//
// TTLs are tiered by user activity so cold-start results, which go stale
// the moment a user's first interactions land, expire faster than results
// for established users. Safe for concurrent use; a reader never observes
// a partially-written entry.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	cfg     CacheConfig
}

// cacheEntry holds one cached recommendation list.
type cacheEntry struct {
	userID    string
	items     []RecommendationItem
	coldStart bool
	weights   EnsembleWeights
	providers []ProviderID
	createdAt time.Time
	expiresAt time.Time
}

func newResultCache(cfg CacheConfig) *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		cfg:     cfg,
	}
}

// cacheKey builds the cache key for a request. Filters are normalized to
// lower case so equivalent requests share an entry.
func cacheKey(req Request) string {
	return fmt.Sprintf("rec:%s:%d:%t:%s:%s:%t",
		req.UserID, req.N, req.ExcludeKnown,
		strings.ToLower(req.Category), strings.ToLower(req.Chain), req.Strict)
}

// get returns a copy of the cached list if present and unexpired. The
// copy is deep through the nested slices so callers mutating the
// response cannot corrupt the stored entry.
func (c *resultCache) get(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return cacheEntry{}, false
	}

	items := make([]RecommendationItem, len(entry.items))
	copy(items, entry.items)
	for i := range items {
		items[i].Sources = append([]ProviderID(nil), items[i].Sources...)
	}
	entry.items = items
	entry.providers = append([]ProviderID(nil), entry.providers...)
	return entry, true
}

// put stores a result. The TTL tier is chosen from the user's activity:
// cold-start users get the shortest TTL, low-activity users a slightly
// longer one, everyone else the default.
func (c *resultCache) put(key string, entry cacheEntry, interactionCount int) {
	ttl := c.cfg.DefaultTTL
	switch {
	case entry.coldStart:
		ttl = c.cfg.ColdStartTTL
	case interactionCount < 10:
		ttl = c.cfg.LowActivityTTL
	}

	now := time.Now()
	entry.createdAt = now
	entry.expiresAt = now.Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.cfg.MaxEntries {
		c.evictExpiredLocked()
		if len(c.entries) >= c.cfg.MaxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry
}

// evictExpiredLocked removes expired entries. Caller holds mu.
func (c *resultCache) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOldestLocked removes the oldest entry. Caller holds mu.
func (c *resultCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// flush removes every entry and returns counts.
func (c *resultCache) flush() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return CacheStats{Cleared: cleared, Remaining: 0}
}

// purgeExpired removes only entries past their TTL.
func (c *resultCache) purgeExpired() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.entries)
	c.evictExpiredLocked()
	return CacheStats{Cleared: before - len(c.entries), Remaining: len(c.entries)}
}

// invalidateUser drops only the given user's entries. Used when a
// previously cold-start user's first interactions are recorded.
func (c *resultCache) invalidateUser(userID string) CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := 0
	for key, entry := range c.entries {
		if entry.userID == userID {
			delete(c.entries, key)
			cleared++
		}
	}
	return CacheStats{Cleared: cleared, Remaining: len(c.entries)}
}

// len returns the current entry count.
func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
