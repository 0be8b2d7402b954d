package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType classifies a ledger entry
type MovementType string

const (
	// MovementTypeIn is stock entering inventory (receiving); quantity must be positive
	MovementTypeIn MovementType = "IN"
	// MovementTypeOut is stock leaving inventory (sale, removal); quantity must be negative
	MovementTypeOut MovementType = "OUT"
	// MovementTypeAdjust is a correction toward a counted total
	MovementTypeAdjust MovementType = "ADJUST"
	// MovementTypeTransfer is stock moved between locations
	MovementTypeTransfer MovementType = "TRANSFER"
	// MovementTypeReturn is stock returned by a customer
	MovementTypeReturn MovementType = "RETURN"
	// MovementTypeDamage is stock written off as damaged or lost
	MovementTypeDamage MovementType = "DAMAGE"
)

// String returns the string representation of the movement type
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjust,
		MovementTypeTransfer, MovementTypeReturn, MovementTypeDamage:
		return true
	}
	return false
}

// Movement is an immutable ledger entry: a signed quantity delta against a
// product and, optionally, a specific batch. Movements are the audit trail
// and the single source of truth for quantity changes; corrections are made
// with new movements, never by editing existing ones.
type Movement struct {
	shared.BaseEntity
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index:idx_movement_product_type,priority:1"`
	BatchID   *uuid.UUID   `gorm:"type:uuid;index"` // nullified, not deleted, when the batch is removed
	Type      MovementType `gorm:"type:varchar(10);not null;index:idx_movement_product_type,priority:2"`
	Quantity  int64        `gorm:"not null"` // signed: positive for IN, negative for OUT
	UnitCost  *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Reference string       `gorm:"type:varchar(100)"`
	Note      string       `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "stock_movements"
}

// NewMovement creates a new ledger entry. Quantity must be non-zero, and its
// sign must match the movement type for IN (positive) and OUT (negative).
func NewMovement(productID uuid.UUID, batchID *uuid.UUID, movementType MovementType, quantity int64, unitCost *decimal.Decimal, reference, note string) (*Movement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if movementType == MovementTypeIn && quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock IN movements must have positive quantity")
	}
	if movementType == MovementTypeOut && quantity >= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock OUT movements must have negative quantity")
	}
	if unitCost != nil && unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &Movement{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		BatchID:    batchID,
		Type:       movementType,
		Quantity:   quantity,
		UnitCost:   unitCost,
		Reference:  reference,
		Note:       note,
	}, nil
}

// TotalValue returns |quantity| valued at the movement's unit cost, or nil
// when no cost was recorded.
func (m *Movement) TotalValue() *decimal.Decimal {
	if m.UnitCost == nil {
		return nil
	}
	qty := m.Quantity
	if qty < 0 {
		qty = -qty
	}
	total := decimal.NewFromInt(qty).Mul(*m.UnitCost)
	return &total
}

// IsInbound returns true for movements that increase stock
func (m *Movement) IsInbound() bool {
	return m.Quantity > 0
}

// MovementFilter narrows ledger history queries
type MovementFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	Type      *MovementType
	BatchID   *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}
