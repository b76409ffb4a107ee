package client

import (
	"sync"
	"time"
)

// tagCache is a TTL cache whose entries belong to tags; invalidating a
// tag drops every entry carrying it. Mutations tag-invalidate instead
// of tracking which individual keys they touched.
type tagCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	tags    map[string]map[string]struct{}
}

type cacheEntry struct {
	val any
	exp time.Time
}

func newTagCache(ttl time.Duration) *tagCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &tagCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		tags:    make(map[string]map[string]struct{}),
	}
}

func (c *tagCache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *tagCache) Set(key string, val any, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{val: val, exp: time.Now().Add(c.ttl)}

	for _, tag := range tags {
		if c.tags[tag] == nil {
			c.tags[tag] = make(map[string]struct{})
		}

		c.tags[tag][key] = struct{}{}
	}
}

func (c *tagCache) InvalidateTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.tags[tag] {
		delete(c.entries, key)
	}

	delete(c.tags, tag)
}

func (c *tagCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	c.tags = make(map[string]map[string]struct{})
}
