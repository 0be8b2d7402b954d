package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// BatchRepository defines the interface for stock batch persistence
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindByProductAndBatchNo finds a batch by its (product, batch_no) key
	FindByProductAndBatchNo(ctx context.Context, productID uuid.UUID, batchNo string) (*Batch, error)

	// FindByProduct finds all batches for a product
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Batch, error)

	// FindEligibleForRemoval finds active batches with stock for a product,
	// locked for update so that concurrent removals cannot double-spend the
	// same batch quantity. Must be called inside a transaction.
	FindEligibleForRemoval(ctx context.Context, productID uuid.UUID) ([]Batch, error)

	// FindMostRecentActive finds the most recently created active batch for
	// a product, or shared.ErrNotFound if none exists.
	FindMostRecentActive(ctx context.Context, productID uuid.UUID) (*Batch, error)

	// FindExpiringSoon finds active batches with stock expiring within the
	// given number of days
	FindExpiringSoon(ctx context.Context, withinDays int, filter shared.Filter) ([]Batch, error)

	// SumActiveQuantity sums quantity across a product's active batches
	SumActiveQuantity(ctx context.Context, productID uuid.UUID) (int64, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *Batch) error
}

// MovementRepository defines the append-only interface for ledger entries.
// Movements are never updated or deleted.
type MovementRepository interface {
	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Movement, error)

	// Find finds movements matching the filter, newest first by default
	Find(ctx context.Context, filter MovementFilter) ([]Movement, error)

	// Count counts movements matching the filter
	Count(ctx context.Context, filter MovementFilter) (int64, error)

	// Create appends a new movement to the ledger
	Create(ctx context.Context, movement *Movement) error
}
