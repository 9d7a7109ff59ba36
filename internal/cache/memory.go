package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps responses in process memory with TTL-based expiry.
type MemoryCache struct {
	inner *gocache.Cache
}

// NewMemoryCache creates a memory cache with the given default TTL and
// janitor interval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{inner: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	v, found := c.inner.Get(key)
	if !found {
		return nil, false
	}
	return v.([]byte), true
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.inner.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.inner.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.inner.Flush()
	return nil
}
