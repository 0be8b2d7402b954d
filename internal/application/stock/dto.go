package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/stock"
)

// AddStockRequest represents a request to receive stock into a batch
type AddStockRequest struct {
	ProductID  uuid.UUID        `json:"product_id" binding:"required"`
	Quantity   int64            `json:"quantity" binding:"required,gt=0"`
	BatchNo    string           `json:"batch_no"` // derived from the current time when empty
	UnitCost   *decimal.Decimal `json:"unit_cost"`
	ExpiryDate *time.Time       `json:"expiry_date"`
	Location   string           `json:"location"`
	Reference  string           `json:"reference"`
	Note       string           `json:"note"`
}

// RemoveStockRequest represents a request to remove stock across batches
type RemoveStockRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,gt=0"`
	Order     string    `json:"order" binding:"omitempty,oneof=FIFO LIFO"`
	Reference string    `json:"reference"`
	Note      string    `json:"note"`
}

// AdjustStockRequest represents a stocktaking correction: the counted total
// the product should end up holding
type AdjustStockRequest struct {
	ProductID        uuid.UUID `json:"product_id" binding:"required"`
	NewTotalQuantity int64     `json:"new_total_quantity" binding:"min=0"`
	Reference        string    `json:"reference"`
	Note             string    `json:"note"`
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID         uuid.UUID        `json:"id"`
	ProductID  uuid.UUID        `json:"product_id"`
	BatchID    *uuid.UUID       `json:"batch_id,omitempty"`
	Type       string           `json:"type"`
	Quantity   int64            `json:"quantity"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalValue *decimal.Decimal `json:"total_value,omitempty"`
	Reference  string           `json:"reference,omitempty"`
	Note       string           `json:"note,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// BatchResponse represents a stock batch in API responses
type BatchResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	BatchNo      string          `json:"batch_no"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	DaysToExpiry *int            `json:"days_to_expiry,omitempty"`
	IsExpired    bool            `json:"is_expired"`
	Quantity     int64           `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Location     string          `json:"location,omitempty"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StockOperationResponse is the result of a stock mutation: the movements it
// appended to the ledger and the recomputed aggregate quantity.
type StockOperationResponse struct {
	ProductID uuid.UUID          `json:"product_id"`
	Quantity  int64              `json:"quantity"` // aggregate quantity after the operation
	Movements []MovementResponse `json:"movements"`
}

// MovementHistoryFilter represents filter options for the movement ledger
type MovementHistoryFilter struct {
	ProductID *uuid.UUID `form:"product_id"`
	BatchID   *uuid.UUID `form:"batch_id"`
	Type      *string    `form:"type" binding:"omitempty,oneof=IN OUT ADJUST TRANSFER RETURN DAMAGE"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToMovementResponse converts a movement to its response representation
func ToMovementResponse(m *stock.Movement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		ProductID:  m.ProductID,
		BatchID:    m.BatchID,
		Type:       m.Type.String(),
		Quantity:   m.Quantity,
		UnitCost:   m.UnitCost,
		TotalValue: m.TotalValue(),
		Reference:  m.Reference,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}

// ToBatchResponse converts a batch to its response representation
func ToBatchResponse(b *stock.Batch) BatchResponse {
	return BatchResponse{
		ID:           b.ID,
		ProductID:    b.ProductID,
		BatchNo:      b.BatchNo,
		ExpiryDate:   b.ExpiryDate,
		DaysToExpiry: b.DaysToExpiry(),
		IsExpired:    b.IsExpired(),
		Quantity:     b.Quantity,
		UnitCost:     b.UnitCost,
		TotalValue:   b.TotalValue(),
		Location:     b.Location,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
	}
}
