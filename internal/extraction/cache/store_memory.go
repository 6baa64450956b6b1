package cache

import (
	"context"
	"sync"
	"time"

	"docval/pkg/platform/sentinel"
)

type cachedPayload struct {
	payload  []byte
	storedAt time.Time
}

// InMemoryCache keeps payloads in process memory until their TTL passes.
type InMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]cachedPayload
	cacheTTL time.Duration
	now      func() time.Time
}

func NewInMemoryCache(cacheTTL time.Duration) *InMemoryCache {
	return &InMemoryCache{
		entries:  make(map[string]cachedPayload),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Set stores a copy of payload under key.
func (c *InMemoryCache) Set(_ context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedPayload{payload: append([]byte(nil), payload...), storedAt: c.now()}
	return nil
}

// Get returns sentinel.ErrNotFound when the key is absent or expired.
func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.entries[key]; ok {
		if c.now().Sub(cached.storedAt) < c.cacheTTL {
			return append([]byte(nil), cached.payload...), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Purge drops expired entries.
func (c *InMemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, cached := range c.entries {
		if c.now().Sub(cached.storedAt) >= c.cacheTTL {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
