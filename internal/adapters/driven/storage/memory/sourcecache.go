package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
)

// Ensure SourceCache implements the interface.
var _ driven.SourceCache = (*SourceCache)(nil)

type cacheKey struct {
	source string
	id     string
}

type cacheItem struct {
	payload []byte
	at      time.Time
}

// SourceCache is an in-memory implementation of driven.SourceCache for testing.
type SourceCache struct {
	mu    sync.RWMutex
	items map[cacheKey]cacheItem
}

// NewSourceCache creates a new in-memory source cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{items: make(map[cacheKey]cacheItem)}
}

// Get returns the payload stored under (source, id) after notBefore.
func (c *SourceCache) Get(_ context.Context, source, id string, notBefore time.Time) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[cacheKey{source, id}]
	if !ok || item.at.Before(notBefore) {
		return nil, false, nil
	}
	return append([]byte(nil), item.payload...), true, nil
}

// Put stores payload under (source, id).
func (c *SourceCache) Put(_ context.Context, source, id string, payload []byte, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[cacheKey{source, id}] = cacheItem{payload: append([]byte(nil), payload...), at: at}
	return nil
}

// Purge removes entries stored before the given time.
func (c *SourceCache) Purge(_ context.Context, before time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, item := range c.items {
		if item.at.Before(before) {
			delete(c.items, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of cached entries.
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close is a no-op.
func (c *SourceCache) Close() error {
	return nil
}
