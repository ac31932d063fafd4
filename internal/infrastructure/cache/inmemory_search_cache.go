package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	appcatalog "github.com/erp/stockledger/internal/application/catalog"
)

// searchEntry is one cached lookup result with its expiration
type searchEntry struct {
	items     []appcatalog.ProductLookup
	expiresAt time.Time
}

// InMemorySearchCache caches product lookups in a process-local map.
// This is suitable for single-instance deployments and testing.
type InMemorySearchCache struct {
	mu        sync.RWMutex
	entries   map[string]searchEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySearchCache creates a cache whose entries live for ttl.
// It starts a background goroutine to drop expired entries.
func NewInMemorySearchCache(ttl time.Duration) *InMemorySearchCache {
	c := &InMemorySearchCache{
		entries:  make(map[string]searchEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns the cached lookup for term if present and not expired
func (c *InMemorySearchCache) Get(_ context.Context, term string) ([]appcatalog.ProductLookup, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[term]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return slices.Clone(e.items), true
}

// Set stores the lookup for term
func (c *InMemorySearchCache) Set(_ context.Context, term string, items []appcatalog.ProductLookup) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[term] = searchEntry{
		items:     slices.Clone(items),
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops every cached lookup
func (c *InMemorySearchCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemorySearchCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemorySearchCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemorySearchCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemorySearchCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for term, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, term)
		}
	}
}

var _ appcatalog.SearchCache = (*InMemorySearchCache)(nil)
