package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QuantityCache provides fast access to per-product on-hand quantities
// without hitting the batch table. The batch ledger in the database
// remains the source of truth; cached values are refreshed after every
// recompute and expire on their own TTL otherwise.
type QuantityCache interface {
	// Get retrieves a cached quantity. The second return value is false
	// on a cache miss.
	Get(ctx context.Context, productID uuid.UUID) (int64, bool, error)

	// Set stores a quantity with the specified TTL.
	// If ttl is 0, implementations should use a default TTL.
	Set(ctx context.Context, productID uuid.UUID, quantity int64, ttl time.Duration) error

	// Invalidate removes a cached quantity.
	Invalidate(ctx context.Context, productID uuid.UUID) error

	// Close releases any resources held by the cache.
	Close() error
}

// NopQuantityCache is a QuantityCache that caches nothing.
// Every read is a miss and writes are discarded.
type NopQuantityCache struct{}

func (NopQuantityCache) Get(ctx context.Context, productID uuid.UUID) (int64, bool, error) {
	return 0, false, nil
}

func (NopQuantityCache) Set(ctx context.Context, productID uuid.UUID, quantity int64, ttl time.Duration) error {
	return nil
}

func (NopQuantityCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	return nil
}

func (NopQuantityCache) Close() error { return nil }

var _ QuantityCache = NopQuantityCache{}
