package api

import (
	"sync"
	"time"

	"symposium/internal/model"
)

type cacheEntry struct {
	data []model.Event
	at   time.Time
}

// memoCache is a small TTL cache for catalog responses, so repeated page
// mounts within the window do not refetch.
type memoCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newMemoCache() *memoCache {
	return &memoCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached value if it is younger than maxAge. Expired entries
// are dropped on read.
func (c *memoCache) Get(key string, maxAge time.Duration) ([]model.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.at) > maxAge {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set stores a value with the current timestamp.
func (c *memoCache) Set(key string, data []model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, at: time.Now()}
}

// Delete removes one entry.
func (c *memoCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes everything.
func (c *memoCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
