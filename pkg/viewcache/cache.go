package viewcache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 10000
)

// Cache remembers keys for a fixed TTL. When full, the least recently used key is evicted.
type Cache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, struct{}]
}

// New creates a cache. Non-positive arguments fall back to the defaults.
func New(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{lru: expirable.NewLRU[string, struct{}](maxEntries, nil, ttl)}
}

// MarkSeen records key and reports whether it was absent (or expired) before the call
func (c *Cache) MarkSeen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru.Contains(key) {
		return false
	}
	c.lru.Add(key, struct{}{})
	return true
}

// Seen reports whether key was recorded within the TTL
func (c *Cache) Seen(key string) bool {
	return c.lru.Contains(key)
}

// Forget removes key
func (c *Cache) Forget(key string) {
	c.lru.Remove(key)
}

// Len returns the number of unexpired keys
func (c *Cache) Len() int {
	return c.lru.Len()
}
