package cache

import (
	"context"
	"sync"
	"time"

	"stock_screener_backend/models"
)

// MemoryCache is an in-process ResultCache with TTL expiry. Suitable for
// single-instance deployments and tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result    *models.ScreenResult
	expiresAt time.Time
}

// NewMemoryCache creates the cache and starts a background janitor that
// evicts expired entries
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{entries: make(map[string]memoryEntry)}
	go c.startCleanup()
	return c
}

// Get returns a cached result if present and unexpired
func (c *MemoryCache) Get(_ context.Context, key string) (*models.ScreenResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

// Put stores a result under the key for the given TTL
func (c *MemoryCache) Put(_ context.Context, key string, result *models.ScreenResult, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{result: result, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// startCleanup periodically removes expired entries
func (c *MemoryCache) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
