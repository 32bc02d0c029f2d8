package utils

import (
	"sync"
	"time"
)

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

// Cache is an in-memory store with sliding expiration. Every successful
// lookup pushes the entry's expiry ttl into the future.
type Cache[V any] struct {
	items map[string]*cacheItem[V]
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewCache creates a cache and starts its cleanup goroutine. A zero
// cleanupInterval disables background cleanup.
func NewCache[V any](ttl, cleanupInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]*cacheItem[V]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}

	return c
}

// Set stores a value in cache
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem[V]{value: value, expiration: c.now().Add(c.ttl)}
}

// Get retrieves a value from cache and refreshes its expiration
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getLocked(key)
}

// GetOrCreate returns the cached value for key, storing create() first
// when the key is missing or expired.
func (c *Cache[V]) GetOrCreate(key string, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.getLocked(key); ok {
		return v
	}
	v := create()
	c.items[key] = &cacheItem[V]{value: v, expiration: c.now().Add(c.ttl)}
	return v
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	item, exists := c.items[key]
	if !exists {
		return zero, false
	}
	now := c.now()
	if now.After(item.expiration) {
		delete(c.items, key)
		return zero, false
	}
	item.expiration = now.Add(c.ttl)
	return item.value, true
}

// Delete removes an item from cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Size returns the number of items in cache, expired ones included until
// the next cleanup
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Keys returns all keys in cache
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	return keys
}

// Close stops the cleanup goroutine
func (c *Cache[V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes expired items
func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}
