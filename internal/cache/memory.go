package cache

import (
	"context"
	"sync"
	"time"

	"github.com/adsight/exporter/internal/core"
)

type memoryEntry struct {
	result    *core.TabularResult
	expiresAt time.Time
}

// MemoryCache is a process-local query cache. It is the fallback when no
// Redis URL is configured; entries do not survive restarts.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*core.TabularResult, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return entry.result, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, result *core.TabularResult, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{
		result:    result,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, including any not yet evicted.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
