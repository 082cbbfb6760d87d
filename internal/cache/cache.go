package cache

import (
	"sync"
	"time"
)

// Cache is a string-keyed TTL cache scoped to the instance that owns it.
// Reads race-free via a mutex; writers invalidate explicitly. It is injected
// into read-heavy lookups (content texts, category names) rather than living
// as a process-wide singleton.
type Cache struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	values map[string]entry
}

type entry struct {
	value     any
	expiresAt time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:    ttl,
		now:    time.Now,
		values: make(map[string]entry),
	}
}

// Get returns the cached value, or nil and false when absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.values[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.values, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops one key; writers call it after committing.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Flush drops everything.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]entry)
}
