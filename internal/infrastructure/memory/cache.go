package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	val     []byte
	expires time.Time // zero = no expiry
}

// Cache is the in-process stand-in for the redis JSON cache.
type Cache struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

func NewCache() *Cache {
	return &Cache{data: map[string]entry{}, now: time.Now}
}

func (c *Cache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(_ context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	e := entry{val: b}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.mu.Unlock()
	return nil
}
