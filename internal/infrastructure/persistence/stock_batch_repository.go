package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

// GormBatchRepository implements stock.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Batch, error) {
	var batch stock.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProductAndBatchNo finds a batch by its (product, batch_no) key
func (r *GormBatchRepository) FindByProductAndBatchNo(ctx context.Context, productID uuid.UUID, batchNo string) (*stock.Batch, error) {
	var batch stock.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND batch_no = ?", productID, batchNo).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProduct finds all batches for a product
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]stock.Batch, error) {
	var batches []stock.Batch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.Batch{}).Where("product_id = ?", productID),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindEligibleForRemoval finds active batches with stock for a product,
// locked FOR UPDATE so concurrent removals serialize on the same rows. Must
// run inside a transaction; outside one the lock is released immediately.
func (r *GormBatchRepository) FindEligibleForRemoval(ctx context.Context, productID uuid.UUID) ([]stock.Batch, error) {
	var batches []stock.Batch
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND is_active = TRUE AND quantity > 0", productID).
		Order("COALESCE(expiry_date, '9999-12-31') ASC, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindMostRecentActive finds the most recently created active batch for a product
func (r *GormBatchRepository) FindMostRecentActive(ctx context.Context, productID uuid.UUID) (*stock.Batch, error) {
	var batch stock.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = TRUE", productID).
		Order("created_at DESC").
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindExpiringSoon finds active batches with stock expiring within the given
// number of days
func (r *GormBatchRepository) FindExpiringSoon(ctx context.Context, withinDays int, filter shared.Filter) ([]stock.Batch, error) {
	var batches []stock.Batch
	now := time.Now()
	threshold := now.AddDate(0, 0, withinDays)

	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.Batch{}).
			Where("is_active = TRUE AND quantity > 0").
			Where("expiry_date IS NOT NULL").
			Where("expiry_date > ? AND expiry_date <= ?", now, threshold),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// SumActiveQuantity sums quantity across a product's active batches
func (r *GormBatchRepository) SumActiveQuantity(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&stock.Batch{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ? AND is_active = TRUE", productID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *stock.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// applyFilter applies filter options to the query
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}
