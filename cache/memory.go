package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token     CachedToken
	expiresAt time.Time
}

// MemoryTokenCache is a process-local TokenCache used when no redis is configured
type MemoryTokenCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryTokenCache returns an empty cache
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryTokenCache) Get(_ context.Context, partialKey string) (*CachedToken, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[tokenKey(partialKey)]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, tokenKey(partialKey))
		return nil, false, nil
	}
	t := e.token
	return &t, true, nil
}

func (c *MemoryTokenCache) Set(_ context.Context, partialKey string, token CachedToken, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	c.entries[tokenKey(partialKey)] = memoryEntry{token: token, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryTokenCache) Expire(_ context.Context, partialKeys ...string) error {
	c.mu.Lock()
	for _, k := range partialKeys {
		delete(c.entries, tokenKey(k))
	}
	c.mu.Unlock()
	return nil
}
