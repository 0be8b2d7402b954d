package stock

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RemovalOrder selects which batches a removal consumes first
type RemovalOrder string

const (
	// RemovalOrderFIFO depletes batches with the earliest expiry date first,
	// then the earliest creation time. Batches without an expiry date come last.
	RemovalOrderFIFO RemovalOrder = "FIFO"
	// RemovalOrderLIFO depletes the most recently created batches first
	RemovalOrderLIFO RemovalOrder = "LIFO"
)

// Deduction is one planned removal from a single batch
type Deduction struct {
	BatchID  uuid.UUID
	BatchNo  string
	Quantity int64 // amount to remove from this batch, always positive
	UnitCost decimal.Decimal
}

// RemovalPlan is the result of planning a removal across batches
type RemovalPlan struct {
	Deductions     []Deduction
	TotalRequested int64
	TotalAvailable int64
}

// SortForRemoval orders batches in place for the given removal order.
func SortForRemoval(batches []Batch, order RemovalOrder) {
	if order == RemovalOrderLIFO {
		sort.SliceStable(batches, func(i, j int) bool {
			return batches[i].CreatedAt.After(batches[j].CreatedAt)
		})
		return
	}

	sort.SliceStable(batches, func(i, j int) bool {
		ei, ej := batches[i].ExpiryDate, batches[j].ExpiryDate
		switch {
		case ei != nil && ej != nil:
			if !ei.Equal(*ej) {
				return ei.Before(*ej)
			}
		case ei != nil:
			return true
		case ej != nil:
			return false
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
}

// PlanRemoval greedily distributes a requested quantity across the eligible
// batches in the given order. It is a pure calculation: nothing is mutated.
// If the active batches cannot cover the request, an InsufficientStockError
// carrying the requested and available totals is returned and no plan is
// produced.
func PlanRemoval(requested int64, batches []Batch, order RemovalOrder) (*RemovalPlan, error) {
	if requested <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Removal quantity must be positive")
	}

	eligible := make([]Batch, 0, len(batches))
	available := int64(0)
	for _, b := range batches {
		if b.HasStock() {
			eligible = append(eligible, b)
			available += b.Quantity
		}
	}

	if available < requested {
		return nil, shared.NewInsufficientStockError(requested, available)
	}

	SortForRemoval(eligible, order)

	plan := &RemovalPlan{
		Deductions:     make([]Deduction, 0, len(eligible)),
		TotalRequested: requested,
		TotalAvailable: available,
	}

	remaining := requested
	for _, b := range eligible {
		if remaining == 0 {
			break
		}
		take := remaining
		if b.Quantity < take {
			take = b.Quantity
		}
		plan.Deductions = append(plan.Deductions, Deduction{
			BatchID:  b.ID,
			BatchNo:  b.BatchNo,
			Quantity: take,
			UnitCost: b.UnitCost,
		})
		remaining -= take
	}

	return plan, nil
}
