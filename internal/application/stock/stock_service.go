package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

// Service handles stock ledger operations. Every mutation runs inside a
// transaction scope: the batch updates, the ledger append and the aggregate
// recomputation commit or roll back together.
type Service struct {
	scope        TransactionScope
	batchRepo    stock.BatchRepository
	movementRepo stock.MovementRepository
	quantities   stock.QuantityCache
	logger       *zap.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithQuantityCache sets the cache that serves quantity reads and is
// refreshed after every recompute.
func WithQuantityCache(cache stock.QuantityCache) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.quantities = cache
		}
	}
}

// NewService creates a new stock service. The standalone repositories serve
// read-only queries; mutations always go through the transaction scope.
func NewService(
	scope TransactionScope,
	batchRepo stock.BatchRepository,
	movementRepo stock.MovementRepository,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		scope:        scope,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		quantities:   stock.NopQuantityCache{},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStock receives a quantity into a batch and appends an IN movement.
// When the request names no batch, a timestamp-derived batch number is used;
// when the named batch does not exist yet, it is created with the request's
// unit cost falling back to the product's.
func (s *Service) AddStock(ctx context.Context, req AddStockRequest) (*StockOperationResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Add quantity must be positive")
	}

	var resp *StockOperationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}

		batchNo := req.BatchNo
		if batchNo == "" {
			batchNo = stock.DefaultBatchNo(time.Now())
		}

		unitCost := product.UnitCost
		if req.UnitCost != nil {
			unitCost = *req.UnitCost
		}

		batch, err := repos.BatchRepo().FindByProductAndBatchNo(ctx, product.ID, batchNo)
		if err != nil {
			if err != shared.ErrNotFound {
				return err
			}
			batch, err = stock.NewBatch(product.ID, batchNo, unitCost, req.ExpiryDate, req.Location)
			if err != nil {
				return err
			}
		}

		if err := batch.Apply(req.Quantity); err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}

		movement, err := stock.NewMovement(product.ID, &batch.ID, stock.MovementTypeIn,
			req.Quantity, &unitCost, req.Reference, req.Note)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		quantity, err := s.recompute(ctx, repos, product)
		if err != nil {
			return err
		}

		resp = &StockOperationResponse{
			ProductID: product.ID,
			Quantity:  quantity,
			Movements: []MovementResponse{ToMovementResponse(movement)},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock added",
		zap.String("product_id", req.ProductID.String()),
		zap.Int64("quantity", req.Quantity))
	return resp, nil
}

// RemoveStock removes a quantity across batches in the requested order
// (FIFO by default) and appends one OUT movement per depleted batch. The
// eligible batches are locked for the duration of the transaction, and the
// whole removal rolls back if any single batch cannot cover its share.
func (s *Service) RemoveStock(ctx context.Context, req RemoveStockRequest) (*StockOperationResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Remove quantity must be positive")
	}

	order := stock.RemovalOrderFIFO
	if req.Order == string(stock.RemovalOrderLIFO) {
		order = stock.RemovalOrderLIFO
	}

	var resp *StockOperationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}

		movements, err := s.removeFromBatches(ctx, repos, product.ID, req.Quantity, order, req.Reference, req.Note)
		if err != nil {
			return err
		}

		quantity, err := s.recompute(ctx, repos, product)
		if err != nil {
			return err
		}

		resp = &StockOperationResponse{
			ProductID: product.ID,
			Quantity:  quantity,
			Movements: movements,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock removed",
		zap.String("product_id", req.ProductID.String()),
		zap.Int64("quantity", req.Quantity),
		zap.String("order", string(order)))
	return resp, nil
}

// removeFromBatches plans a removal over the locked eligible batches and, for
// each deduction, decrements the batch and appends an OUT movement. Runs
// inside the caller's transaction.
func (s *Service) removeFromBatches(
	ctx context.Context,
	repos TransactionalRepositories,
	productID uuid.UUID,
	quantity int64,
	order stock.RemovalOrder,
	reference, note string,
) ([]MovementResponse, error) {
	batches, err := repos.BatchRepo().FindEligibleForRemoval(ctx, productID)
	if err != nil {
		return nil, err
	}

	plan, err := stock.PlanRemoval(quantity, batches, order)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*stock.Batch, len(batches))
	for i := range batches {
		byID[batches[i].ID] = &batches[i]
	}

	movements := make([]MovementResponse, 0, len(plan.Deductions))
	for _, d := range plan.Deductions {
		batch := byID[d.BatchID]
		if err := batch.Apply(-d.Quantity); err != nil {
			return nil, err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return nil, err
		}

		unitCost := d.UnitCost
		movement, err := stock.NewMovement(productID, &d.BatchID, stock.MovementTypeOut,
			-d.Quantity, &unitCost, reference, note)
		if err != nil {
			return nil, err
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return nil, err
		}
		movements = append(movements, ToMovementResponse(movement))
	}
	return movements, nil
}

// AdjustStock sets a product's total quantity to a counted target, the
// stocktaking operation. The difference against the current total is
// computed inside the transaction, so a concurrent movement cannot skew the
// correction. A surplus lands on the most recently created active batch as a
// single ADJUST movement, creating an adjustment batch when the product has
// none. A shortfall is deliberately not symmetric: it depletes the oldest
// stock first via FIFO removal, producing OUT movements. When the counted
// target already matches the current total, nothing is written.
func (s *Service) AdjustStock(ctx context.Context, req AdjustStockRequest) (*StockOperationResponse, error) {
	if req.NewTotalQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Target quantity must be non-negative")
	}

	var resp *StockOperationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}

		current, err := repos.BatchRepo().SumActiveQuantity(ctx, product.ID)
		if err != nil {
			return err
		}

		delta := req.NewTotalQuantity - current
		if delta == 0 {
			resp = &StockOperationResponse{
				ProductID: product.ID,
				Quantity:  current,
				Movements: []MovementResponse{},
			}
			return nil
		}

		if delta < 0 {
			movements, err := s.removeFromBatches(ctx, repos, product.ID, -delta,
				stock.RemovalOrderFIFO, req.Reference, req.Note)
			if err != nil {
				return err
			}
			quantity, err := s.recompute(ctx, repos, product)
			if err != nil {
				return err
			}
			resp = &StockOperationResponse{
				ProductID: product.ID,
				Quantity:  quantity,
				Movements: movements,
			}
			return nil
		}

		batch, err := repos.BatchRepo().FindMostRecentActive(ctx, product.ID)
		if err != nil {
			if err != shared.ErrNotFound {
				return err
			}
			batch, err = stock.NewBatch(product.ID, stock.AdjustmentBatchNo(time.Now()),
				product.UnitCost, nil, "")
			if err != nil {
				return err
			}
		}

		if err := batch.Apply(delta); err != nil {
			return err
		}
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}

		movement, err := stock.NewMovement(product.ID, &batch.ID, stock.MovementTypeAdjust,
			delta, nil, req.Reference, req.Note)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		quantity, err := s.recompute(ctx, repos, product)
		if err != nil {
			return err
		}

		resp = &StockOperationResponse{
			ProductID: product.ID,
			Quantity:  quantity,
			Movements: []MovementResponse{ToMovementResponse(movement)},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("product_id", req.ProductID.String()),
		zap.Int64("target", req.NewTotalQuantity),
		zap.Int64("quantity", resp.Quantity))
	return resp, nil
}

// RecomputeQuantity re-derives a product's aggregate quantity from its
// active batches and persists it. Idempotent: when the stored value already
// matches the sum, no write is issued.
func (s *Service) RecomputeQuantity(ctx context.Context, productID uuid.UUID) (int64, error) {
	var quantity int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		quantity, err = s.recompute(ctx, repos, product)
		return err
	})
	return quantity, err
}

// recompute sums the active batches and, only when the stored aggregate
// disagrees, writes the result with a direct column update inside the
// caller's transaction.
func (s *Service) recompute(ctx context.Context, repos TransactionalRepositories, product *catalog.Product) (int64, error) {
	quantity, err := repos.BatchRepo().SumActiveQuantity(ctx, product.ID)
	if err != nil {
		return 0, err
	}
	if product.Quantity != quantity {
		if err := repos.ProductRepo().UpdateQuantity(ctx, product.ID, quantity); err != nil {
			return 0, err
		}
		product.Quantity = quantity
	}

	// Best effort: a stale cache entry expires on its own TTL.
	if err := s.quantities.Set(ctx, product.ID, quantity, 0); err != nil {
		s.logger.Warn("failed to refresh quantity cache",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}

	return quantity, nil
}

// GetQuantity returns a product's on-hand quantity, serving from the cache
// when possible and falling back to the batch ledger on a miss.
func (s *Service) GetQuantity(ctx context.Context, productID uuid.UUID) (int64, error) {
	if quantity, ok, err := s.quantities.Get(ctx, productID); err == nil && ok {
		return quantity, nil
	} else if err != nil {
		s.logger.Warn("quantity cache read failed",
			zap.String("product_id", productID.String()),
			zap.Error(err))
	}

	quantity, err := s.batchRepo.SumActiveQuantity(ctx, productID)
	if err != nil {
		return 0, err
	}

	if err := s.quantities.Set(ctx, productID, quantity, 0); err != nil {
		s.logger.Warn("failed to refresh quantity cache",
			zap.String("product_id", productID.String()),
			zap.Error(err))
	}

	return quantity, nil
}

// DeactivateBatch removes a batch from aggregate and removal consideration,
// keeping its movement history, and recomputes the product quantity.
func (s *Service) DeactivateBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	var resp *BatchResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}

		batch.Deactivate()
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}

		product, err := repos.ProductRepo().FindByID(ctx, batch.ProductID)
		if err != nil {
			return err
		}
		if _, err := s.recompute(ctx, repos, product); err != nil {
			return err
		}

		r := ToBatchResponse(batch)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("batch deactivated", zap.String("batch_id", batchID.String()))
	return resp, nil
}

// ListBatches returns the batches of a product
func (s *Service) ListBatches(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]BatchResponse, error) {
	batches, err := s.batchRepo.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses, nil
}

// ListExpiringBatches returns active batches with stock expiring within the
// given number of days
func (s *Service) ListExpiringBatches(ctx context.Context, withinDays int, filter shared.Filter) ([]BatchResponse, error) {
	if withinDays < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Days must be non-negative")
	}

	batches, err := s.batchRepo.FindExpiringSoon(ctx, withinDays, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses, nil
}

// ListMovements returns a page of the movement ledger matching the filter
func (s *Service) ListMovements(ctx context.Context, filter MovementHistoryFilter) (*shared.Paginated[MovementResponse], error) {
	domainFilter := stock.MovementFilter{
		Filter:    shared.DefaultFilter(),
		ProductID: filter.ProductID,
		BatchID:   filter.BatchID,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Type != nil {
		movementType := stock.MovementType(*filter.Type)
		if !movementType.IsValid() {
			return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
		}
		domainFilter.Type = &movementType
	}

	movements, err := s.movementRepo.Find(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.movementRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}

	result := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// InventoryValue values a product's active stock at batch unit cost
func (s *Service) InventoryValue(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	// zero-value filter: all batches, unpaginated
	batches, err := s.batchRepo.FindByProduct(ctx, productID, shared.Filter{})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range batches {
		if batches[i].HasStock() {
			total = total.Add(batches[i].TotalValue())
		}
	}
	return total, nil
}
