package layout

import (
	"sync"

	"amplc/internal/valtypes"
)

type cacheEntry struct {
	size int
	err  *LayoutError
}

// cache is shared by every manager built from the same Engine, including
// scenarios running in parallel.
type cache struct {
	mu     sync.RWMutex
	byType map[valtypes.ValType]cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[valtypes.ValType]cacheEntry, 8)}
}

func (c *cache) get(t valtypes.ValType) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byType[t]
	return e, ok
}

func (c *cache) put(t valtypes.ValType, e cacheEntry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byType[t] = e
	c.mu.Unlock()
}
