package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pos/backend/internal/domain/stock"
)

type quantityEntry struct {
	quantity  int64
	expiresAt time.Time
}

// InMemoryQuantityCache implements stock.QuantityCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
// State is not shared across processes, so a multi-instance deployment
// should use the Redis implementation instead.
type InMemoryQuantityCache struct {
	mu         sync.RWMutex
	entries    map[uuid.UUID]quantityEntry
	defaultTTL time.Duration
	stopChan   chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewInMemoryQuantityCache creates a new in-memory quantity cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryQuantityCache() *InMemoryQuantityCache {
	c := &InMemoryQuantityCache{
		entries:    make(map[uuid.UUID]quantityEntry),
		defaultTTL: defaultQuantityTTL,
		stopChan:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

func (c *InMemoryQuantityCache) Get(ctx context.Context, productID uuid.UUID) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[productID]
	if !exists || time.Now().After(e.expiresAt) {
		return 0, false, nil
	}

	return e.quantity, true, nil
}

func (c *InMemoryQuantityCache) Set(ctx context.Context, productID uuid.UUID, quantity int64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[productID] = quantityEntry{
		quantity:  quantity,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *InMemoryQuantityCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, productID)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryQuantityCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the cache (for testing/monitoring).
func (c *InMemoryQuantityCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryQuantityCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
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

func (c *InMemoryQuantityCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for productID, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, productID)
		}
	}
}

var _ stock.QuantityCache = (*InMemoryQuantityCache)(nil)
