package glossar

import (
	"sync"
	"time"
)

// cacheEntry is one cached glossar, valid as long as the source file's
// modification time is unchanged.
type cacheEntry struct {
	modTime time.Time
	glossar *Glossar
}

// Cache is an explicit, injectable glossar cache keyed by file path and
// validated by modification time. Construct one at startup and share it
// between the loader and any component that needs invalidation.
//
// Cache is safe for concurrent use. A load finishing after an Invalidate for
// the same path simply repopulates the entry; because entries carry the file
// mtime they were read at, a stale write is superseded on the next access.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache returns an empty ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached glossar for path if one exists and was read at
// exactly modTime.
func (c *Cache) Get(path string, modTime time.Time) (*Glossar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || !e.modTime.Equal(modTime) {
		return nil, false
	}
	return e.glossar, true
}

// Put stores g for path, recording the modification time it was read at.
func (c *Cache) Put(path string, modTime time.Time, g *Glossar) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{modTime: modTime, glossar: g}
}

// Invalidate removes the cached entry for path, if any.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Clear removes all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
