package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos/backend/internal/domain/catalog"
)

// GormSequenceAllocator implements catalog.SequenceAllocator on a table of
// per-prefix counters. Allocation runs in its own transaction: the counter
// row is created on first use, then read FOR UPDATE and incremented, so two
// concurrent allocations for the same prefix serialize and never observe the
// same number. Distinct prefixes lock distinct rows and proceed in parallel.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GormSequenceAllocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// Allocate returns the next number for the prefix
func (r *GormSequenceAllocator) Allocate(ctx context.Context, prefix string) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// ON CONFLICT absorbs the race between two first allocations
		seed := catalog.SKUSequence{Prefix: prefix}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "prefix"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var row catalog.SKUSequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ?", prefix).
			First(&row).Error; err != nil {
			return err
		}

		next = row.LastNumber + 1
		return tx.Model(&catalog.SKUSequence{}).
			Where("id = ?", row.ID).
			UpdateColumn("last_number", next).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Peek returns the last allocated number without locking or incrementing.
// Returns 0 for a prefix that has never allocated.
func (r *GormSequenceAllocator) Peek(ctx context.Context, prefix string) (int64, error) {
	var row catalog.SKUSequence
	if err := r.db.WithContext(ctx).
		Where("prefix = ?", prefix).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.LastNumber, nil
}

var _ catalog.SequenceAllocator = (*GormSequenceAllocator)(nil)
