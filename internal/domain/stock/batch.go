package stock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Batch is a quantity of a product received together (batch/lot), tracked
// separately for cost and expiry. Its quantity is mutated exclusively by
// applying ledger movements, never directly.
type Batch struct {
	shared.BaseEntity
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_product_no,priority:1"`
	BatchNo    string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_batch_product_no,priority:2"`
	ExpiryDate *time.Time      `gorm:"type:date;index"`
	Quantity   int64           `gorm:"not null;default:0"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Location   string          `gorm:"type:varchar(200)"`
	IsActive   bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "stock_batches"
}

// NewBatch creates a new batch with zero quantity. Stock enters the batch
// only through movement application.
func NewBatch(productID uuid.UUID, batchNo string, unitCost decimal.Decimal, expiryDate *time.Time, location string) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if batchNo == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NO", "Batch number cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &Batch{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		BatchNo:    batchNo,
		ExpiryDate: expiryDate,
		Quantity:   0,
		UnitCost:   unitCost,
		Location:   location,
		IsActive:   true,
	}, nil
}

// DefaultBatchNo derives a timestamp-based batch number for add-stock calls
// that do not name one.
func DefaultBatchNo(now time.Time) string {
	return "BATCH-" + now.Format("20060102-150405")
}

// AdjustmentBatchNo derives a timestamp-based batch number for adjustment
// batches created when no active batch exists.
func AdjustmentBatchNo(now time.Time) string {
	return "ADJ-" + now.Format("20060102-150405")
}

// Apply adds a signed movement quantity to the batch. It fails if the
// result would be negative; the caller must abort its transaction.
func (b *Batch) Apply(delta int64) error {
	next := b.Quantity + delta
	if next < 0 {
		return shared.NewDomainError("NEGATIVE_BATCH_QUANTITY",
			fmt.Sprintf("Stock batch %s would have negative quantity", b.BatchNo))
	}
	b.Quantity = next
	b.UpdatedAt = time.Now()
	return nil
}

// Deactivate removes the batch from aggregate and removal consideration
// without deleting its movement history.
func (b *Batch) Deactivate() {
	b.IsActive = false
	b.UpdatedAt = time.Now()
}

// IsExpired returns true if the batch's expiry date is before today.
// Batches without an expiry date never expire.
func (b *Batch) IsExpired() bool {
	if b.ExpiryDate == nil {
		return false
	}
	today := truncateToDay(time.Now())
	return b.ExpiryDate.Before(today)
}

// DaysToExpiry returns the number of days until expiry, or nil if the batch
// has no expiry date. Negative for already-expired batches.
func (b *Batch) DaysToExpiry() *int {
	if b.ExpiryDate == nil {
		return nil
	}
	days := int(b.ExpiryDate.Sub(truncateToDay(time.Now())).Hours() / 24)
	return &days
}

// HasStock returns true if the batch is active with available quantity
func (b *Batch) HasStock() bool {
	return b.IsActive && b.Quantity > 0
}

// TotalValue returns the batch quantity valued at its unit cost
func (b *Batch) TotalValue() decimal.Decimal {
	return decimal.NewFromInt(b.Quantity).Mul(b.UnitCost)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
