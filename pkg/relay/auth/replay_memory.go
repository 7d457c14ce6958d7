package auth

import (
	"sync"
	"time"
)

type memoryReplayCache struct {
	store map[string]time.Time
	sync.Mutex
}

// NewMemoryReplayCache keeps seen signatures in process memory. Good enough
// for a single instance, use the redis cache when running more than one.
func NewMemoryReplayCache() ReplayCache {
	return &memoryReplayCache{
		store: make(map[string]time.Time),
	}
}

func (c *memoryReplayCache) SeenOrStore(signature string, ttl time.Duration) (bool, error) {
	c.Lock()
	defer c.Unlock()

	now := time.Now()
	if expiresAt, ok := c.store[signature]; ok && expiresAt.After(now) {
		return true, nil
	}

	// Expired entries are dropped lazily on the way through
	for sig, expiresAt := range c.store {
		if !expiresAt.After(now) {
			delete(c.store, sig)
		}
	}

	c.store[signature] = now.Add(ttl)

	return false, nil
}
