package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rewired-gh/readiness/internal/logger"
	"github.com/rewired-gh/readiness/internal/models"
)

type cacheEntry struct {
	table    *models.Table
	loadedAt time.Time
}

// Cache memoizes parsed tables per source key.
// Concurrent misses for the same key share a single read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time

	// OnLookup, when set, is called with "hit" or "miss" for every Load
	OnLookup func(result string)
}

// NewCache creates a cache. A ttl of zero keeps entries until Clear.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load returns the table for src, reading and parsing it on a miss.
// Failed loads are not cached.
func (c *Cache) Load(ctx context.Context, src Source) (*models.Table, error) {
	key := src.Key()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && !c.expired(entry) {
		c.observe("hit")
		return entry.table, nil
	}
	c.observe("miss")

	// the shared read outlives any single caller; each caller waits on its own ctx
	readCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		table, err := read(readCtx, src)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{table: table, loadedAt: c.now()}
		c.mu.Unlock()
		logger.Info("Loaded dataset %s (%d rows)", key, table.Len())
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Table), nil
	}
}

// Clear drops every cached table
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
	logger.Info("Dataset cache cleared")
}

// Len returns the number of cached tables
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) expired(e cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl
}

func (c *Cache) observe(result string) {
	if c.OnLookup != nil {
		c.OnLookup(result)
	}
}

func read(ctx context.Context, src Source) (*models.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	table, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", src.Key(), err)
	}
	return table, nil
}
