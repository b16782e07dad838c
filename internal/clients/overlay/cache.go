package overlay

import (
	"sync"
	"time"
)

// feedCache provides thread-safe in-memory caching of parsed networks with
// a TTL per entry.
type feedCache struct {
	entries map[string]*cacheEntry
	mutex   sync.RWMutex
}

type cacheEntry struct {
	network   *Network
	createdAt time.Time
	expiresAt time.Time
}

func newFeedCache() *feedCache {
	return &feedCache{
		entries: make(map[string]*cacheEntry),
	}
}

func (c *feedCache) set(url string, network *Network, ttl time.Duration) {
	now := time.Now()
	entry := &cacheEntry{
		network:   network,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[url] = entry
}

func (c *feedCache) get(url string) (*Network, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[url]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.network, true
}

func (c *feedCache) delete(url string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, url)
}

// cleanupStale removes expired entries and reports how many were dropped.
func (c *feedCache) cleanupStale() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	var removed int
	for url, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, url)
			removed++
		}
	}
	return removed
}
