package services

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// catalogCache keeps catalog rows (benefits, badges, achievement lists) in memory.
// Entries go stale after ttl so edits made by a reseed show up without a restart.
type catalogCache struct {
	cache *lru.Cache
	ttl   time.Duration
}

type cachedEntry struct {
	value    interface{}
	storedAt time.Time
}

func newCatalogCache(size int, ttl time.Duration) *catalogCache {
	c, err := lru.New(size)
	if err != nil {
		// only fails for size <= 0
		log.Printf("⚠️  [CACHE] catalog cache disabled: %v", err)
		return &catalogCache{ttl: ttl}
	}
	return &catalogCache{cache: c, ttl: ttl}
}

func (c *catalogCache) get(key string) (interface{}, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cachedEntry)
	if c.ttl > 0 && time.Since(entry.storedAt) > c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *catalogCache) add(key string, value interface{}) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Add(key, cachedEntry{value: value, storedAt: time.Now()})
}

// Purge drops every cached catalog row.
func (c *catalogCache) Purge() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Purge()
}

const (
	catalogCacheSize = 256
	catalogCacheTTL  = 5 * time.Minute
)
