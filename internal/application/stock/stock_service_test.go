package stock

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

type serviceMocks struct {
	batchRepo    *MockBatchRepository
	movementRepo *MockMovementRepository
	productRepo  *MockProductRepository
}

func newTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()
	mocks := &serviceMocks{
		batchRepo:    new(MockBatchRepository),
		movementRepo: new(MockMovementRepository),
		productRepo:  new(MockProductRepository),
	}
	scope := NewNoOpTransactionScope(mocks.batchRepo, mocks.movementRepo, mocks.productRepo)
	return NewService(scope, mocks.batchRepo, mocks.movementRepo, nil), mocks
}

func testProduct(t *testing.T) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("Olive Oil 1L", uuid.New(), catalog.UnitBottle, catalog.Pricing{
		UnitCost:          decimal.NewFromFloat(4.50),
		LeastSellingPrice: decimal.NewFromFloat(5.00),
		WholesalePrice:    decimal.NewFromFloat(6.00),
		RetailPrice:       decimal.NewFromFloat(7.99),
	})
	require.NoError(t, err)
	return product
}

func testBatch(t *testing.T, productID uuid.UUID, batchNo string, quantity int64, createdAt time.Time) stock.Batch {
	t.Helper()
	batch, err := stock.NewBatch(productID, batchNo, decimal.NewFromFloat(4.50), nil, "")
	require.NoError(t, err)
	require.NoError(t, batch.Apply(quantity))
	batch.CreatedAt = createdAt
	return *batch
}

func TestService_AddStock(t *testing.T) {
	ctx := context.Background()

	t.Run("creates batch and IN movement for new batch number", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("FindByProductAndBatchNo", ctx, product.ID, "BATCH-A").
			Return(nil, shared.ErrNotFound)

		var savedBatch *stock.Batch
		mocks.batchRepo.On("Save", ctx, mock.AnythingOfType("*stock.Batch")).
			Run(func(args mock.Arguments) { savedBatch = args.Get(1).(*stock.Batch) }).
			Return(nil)

		var created *stock.Movement
		mocks.movementRepo.On("Create", ctx, mock.AnythingOfType("*stock.Movement")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*stock.Movement) }).
			Return(nil)

		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(50), nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(50)).Return(nil)

		resp, err := service.AddStock(ctx, AddStockRequest{
			ProductID: product.ID,
			Quantity:  50,
			BatchNo:   "BATCH-A",
			Reference: "PO-1001",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(50), resp.Quantity)
		require.Len(t, resp.Movements, 1)
		assert.Equal(t, "IN", resp.Movements[0].Type)
		assert.Equal(t, int64(50), resp.Movements[0].Quantity)

		require.NotNil(t, savedBatch)
		assert.Equal(t, "BATCH-A", savedBatch.BatchNo)
		assert.Equal(t, int64(50), savedBatch.Quantity)
		// unit cost falls back to the product's
		assert.True(t, savedBatch.UnitCost.Equal(product.UnitCost))

		require.NotNil(t, created)
		assert.Equal(t, stock.MovementTypeIn, created.Type)
		require.NotNil(t, created.BatchID)
		assert.Equal(t, savedBatch.ID, *created.BatchID)
	})

	t.Run("tops up an existing batch", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		existing := testBatch(t, product.ID, "BATCH-A", 30, time.Now())

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("FindByProductAndBatchNo", ctx, product.ID, "BATCH-A").
			Return(&existing, nil)
		mocks.batchRepo.On("Save", ctx, &existing).Return(nil)
		mocks.movementRepo.On("Create", ctx, mock.AnythingOfType("*stock.Movement")).Return(nil)
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(50), nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(50)).Return(nil)

		_, err := service.AddStock(ctx, AddStockRequest{ProductID: product.ID, Quantity: 20, BatchNo: "BATCH-A"})

		require.NoError(t, err)
		assert.Equal(t, int64(50), existing.Quantity)
	})

	t.Run("derives a batch number when none is given", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("FindByProductAndBatchNo", ctx, product.ID,
			mock.MatchedBy(func(no string) bool { return strings.HasPrefix(no, "BATCH-") })).
			Return(nil, shared.ErrNotFound)
		mocks.batchRepo.On("Save", ctx, mock.Anything).Return(nil)
		mocks.movementRepo.On("Create", ctx, mock.Anything).Return(nil)
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(10), nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(10)).Return(nil)

		_, err := service.AddStock(ctx, AddStockRequest{ProductID: product.ID, Quantity: 10})
		require.NoError(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		service, _ := newTestService(t)
		_, err := service.AddStock(ctx, AddStockRequest{ProductID: uuid.New(), Quantity: 0})
		assert.Error(t, err)
	})

	t.Run("unknown product", func(t *testing.T) {
		service, mocks := newTestService(t)
		productID := uuid.New()
		mocks.productRepo.On("FindByID", ctx, productID).Return(nil, shared.ErrNotFound)

		_, err := service.AddStock(ctx, AddStockRequest{ProductID: productID, Quantity: 10})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_RemoveStock(t *testing.T) {
	ctx := context.Background()

	t.Run("FIFO removal spans batches and records one OUT per batch", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		base := time.Now().Add(-48 * time.Hour)
		batches := []stock.Batch{
			testBatch(t, product.ID, "older", 50, base),
			testBatch(t, product.ID, "newer", 30, base.Add(time.Hour)),
		}

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("FindEligibleForRemoval", ctx, product.ID).Return(batches, nil)
		mocks.batchRepo.On("Save", ctx, mock.AnythingOfType("*stock.Batch")).Return(nil)

		var created []*stock.Movement
		mocks.movementRepo.On("Create", ctx, mock.AnythingOfType("*stock.Movement")).
			Run(func(args mock.Arguments) { created = append(created, args.Get(1).(*stock.Movement)) }).
			Return(nil)

		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(20), nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(20)).Return(nil)

		resp, err := service.RemoveStock(ctx, RemoveStockRequest{
			ProductID: product.ID,
			Quantity:  60,
			Reference: "SALE-42",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(20), resp.Quantity)
		require.Len(t, resp.Movements, 2)

		require.Len(t, created, 2)
		assert.Equal(t, stock.MovementTypeOut, created[0].Type)
		assert.Equal(t, int64(-50), created[0].Quantity)
		assert.Equal(t, int64(-10), created[1].Quantity)
	})

	t.Run("insufficient stock writes nothing", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		batches := []stock.Batch{testBatch(t, product.ID, "only", 5, time.Now())}

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("FindEligibleForRemoval", ctx, product.ID).Return(batches, nil)

		_, err := service.RemoveStock(ctx, RemoveStockRequest{ProductID: product.ID, Quantity: 10})

		var insufficientErr *shared.InsufficientStockError
		require.True(t, errors.As(err, &insufficientErr))
		assert.Equal(t, int64(5), insufficientErr.Available)

		mocks.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		mocks.movementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.productRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LIFO removal takes the newest batch first", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		base := time.Now().Add(-48 * time.Hour)
		batches := []stock.Batch{
			testBatch(t, product.ID, "older", 50, base),
			testBatch(t, product.ID, "newer", 30, base.Add(time.Hour)),
		}

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("FindEligibleForRemoval", ctx, product.ID).Return(batches, nil)
		mocks.batchRepo.On("Save", ctx, mock.Anything).Return(nil)

		var created []*stock.Movement
		mocks.movementRepo.On("Create", ctx, mock.AnythingOfType("*stock.Movement")).
			Run(func(args mock.Arguments) { created = append(created, args.Get(1).(*stock.Movement)) }).
			Return(nil)

		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(70), nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(70)).Return(nil)

		_, err := service.RemoveStock(ctx, RemoveStockRequest{ProductID: product.ID, Quantity: 10, Order: "LIFO"})

		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, batches[1].ID, *created[0].BatchID)
	})
}

func TestService_AdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("target above current creates one ADJUST for the difference", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		recent := testBatch(t, product.ID, "BATCH-A", 80, time.Now())

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		// current total on the first read, the recomputed total on the second
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(80), nil).Once()
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(100), nil).Once()
		mocks.batchRepo.On("FindMostRecentActive", ctx, product.ID).Return(&recent, nil)
		mocks.batchRepo.On("Save", ctx, &recent).Return(nil)

		var created *stock.Movement
		mocks.movementRepo.On("Create", ctx, mock.AnythingOfType("*stock.Movement")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*stock.Movement) }).
			Return(nil)

		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(100)).Return(nil)

		resp, err := service.AdjustStock(ctx, AdjustStockRequest{
			ProductID:        product.ID,
			NewTotalQuantity: 100,
			Note:             "count correction",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(100), resp.Quantity)
		require.Len(t, resp.Movements, 1)
		assert.Equal(t, "ADJUST", resp.Movements[0].Type)
		assert.Equal(t, int64(20), resp.Movements[0].Quantity)
		assert.Equal(t, int64(100), recent.Quantity)
		assert.Equal(t, stock.MovementTypeAdjust, created.Type)
	})

	t.Run("target above current without batches creates an adjustment batch", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(0), nil).Once()
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(5), nil).Once()
		mocks.batchRepo.On("FindMostRecentActive", ctx, product.ID).Return(nil, shared.ErrNotFound)

		var savedBatch *stock.Batch
		mocks.batchRepo.On("Save", ctx, mock.AnythingOfType("*stock.Batch")).
			Run(func(args mock.Arguments) { savedBatch = args.Get(1).(*stock.Batch) }).
			Return(nil)
		mocks.movementRepo.On("Create", ctx, mock.Anything).Return(nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(5)).Return(nil)

		_, err := service.AdjustStock(ctx, AdjustStockRequest{ProductID: product.ID, NewTotalQuantity: 5})

		require.NoError(t, err)
		require.NotNil(t, savedBatch)
		assert.True(t, strings.HasPrefix(savedBatch.BatchNo, "ADJ-"))
		assert.Equal(t, int64(5), savedBatch.Quantity)
	})

	t.Run("target below current writes off FIFO as OUT", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		batches := []stock.Batch{testBatch(t, product.ID, "only", 20, time.Now())}

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(20), nil).Once()
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(17), nil).Once()
		mocks.batchRepo.On("FindEligibleForRemoval", ctx, product.ID).Return(batches, nil)
		mocks.batchRepo.On("Save", ctx, mock.Anything).Return(nil)

		var created *stock.Movement
		mocks.movementRepo.On("Create", ctx, mock.AnythingOfType("*stock.Movement")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*stock.Movement) }).
			Return(nil)

		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(17)).Return(nil)

		resp, err := service.AdjustStock(ctx, AdjustStockRequest{ProductID: product.ID, NewTotalQuantity: 17})

		require.NoError(t, err)
		assert.Equal(t, int64(17), resp.Quantity)
		require.Len(t, resp.Movements, 1)
		// write-offs are recorded as OUT, not ADJUST
		assert.Equal(t, stock.MovementTypeOut, created.Type)
		assert.Equal(t, int64(-3), created.Quantity)
		mocks.batchRepo.AssertNotCalled(t, "FindMostRecentActive", mock.Anything, mock.Anything)
	})

	t.Run("matching target is a no-op", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(80), nil)

		resp, err := service.AdjustStock(ctx, AdjustStockRequest{ProductID: product.ID, NewTotalQuantity: 80})

		require.NoError(t, err)
		assert.Equal(t, int64(80), resp.Quantity)
		assert.Empty(t, resp.Movements)
		mocks.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		mocks.movementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.productRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("negative target is rejected", func(t *testing.T) {
		service, _ := newTestService(t)
		_, err := service.AdjustStock(ctx, AdjustStockRequest{ProductID: uuid.New(), NewTotalQuantity: -1})
		assert.Error(t, err)
	})
}

func TestService_RecomputeQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the derived value when the stored one disagrees", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		product.Quantity = 30

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(42), nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(42)).Return(nil)

		quantity, err := service.RecomputeQuantity(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(42), quantity)
		mocks.productRepo.AssertNumberOfCalls(t, "UpdateQuantity", 1)
	})

	t.Run("consistent aggregate performs no write", func(t *testing.T) {
		service, mocks := newTestService(t)
		product := testProduct(t)
		product.Quantity = 42

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(42), nil)

		first, err := service.RecomputeQuantity(ctx, product.ID)
		require.NoError(t, err)

		second, err := service.RecomputeQuantity(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(42), first)
		mocks.productRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_DeactivateBatch(t *testing.T) {
	ctx := context.Background()
	service, mocks := newTestService(t)
	product := testProduct(t)
	product.Quantity = 10
	batch := testBatch(t, product.ID, "BATCH-A", 10, time.Now())

	mocks.batchRepo.On("FindByID", ctx, batch.ID).Return(&batch, nil)
	mocks.batchRepo.On("Save", ctx, &batch).Return(nil)
	mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
	mocks.batchRepo.On("SumActiveQuantity", ctx, product.ID).Return(int64(0), nil)
	mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(0)).Return(nil)

	resp, err := service.DeactivateBatch(ctx, batch.ID)

	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.False(t, batch.IsActive)
}

func TestService_ListMovements(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown movement type", func(t *testing.T) {
		service, _ := newTestService(t)
		bad := "AUDIT"
		_, err := service.ListMovements(ctx, MovementHistoryFilter{Type: &bad})
		assert.Error(t, err)
	})

	t.Run("pages the ledger", func(t *testing.T) {
		service, mocks := newTestService(t)
		productID := uuid.New()
		cost := decimal.NewFromFloat(4.50)
		movement, err := stock.NewMovement(productID, nil, stock.MovementTypeIn, 50, &cost, "PO-1001", "")
		require.NoError(t, err)

		mocks.movementRepo.On("Find", ctx, mock.AnythingOfType("stock.MovementFilter")).
			Return([]stock.Movement{*movement}, nil)
		mocks.movementRepo.On("Count", ctx, mock.AnythingOfType("stock.MovementFilter")).
			Return(int64(1), nil)

		page, err := service.ListMovements(ctx, MovementHistoryFilter{ProductID: &productID})

		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "IN", page.Items[0].Type)
	})
}

// fakeQuantityCache is a map-backed cache that counts writes, so tests can
// tell whether a read was served from cache or from the batch ledger.
type fakeQuantityCache struct {
	values map[uuid.UUID]int64
	sets   int
}

func newFakeQuantityCache() *fakeQuantityCache {
	return &fakeQuantityCache{values: make(map[uuid.UUID]int64)}
}

func (c *fakeQuantityCache) Get(ctx context.Context, productID uuid.UUID) (int64, bool, error) {
	quantity, ok := c.values[productID]
	return quantity, ok, nil
}

func (c *fakeQuantityCache) Set(ctx context.Context, productID uuid.UUID, quantity int64, ttl time.Duration) error {
	c.values[productID] = quantity
	c.sets++
	return nil
}

func (c *fakeQuantityCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	delete(c.values, productID)
	return nil
}

func (c *fakeQuantityCache) Close() error { return nil }

func TestService_GetQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to the ledger on a miss and caches the result", func(t *testing.T) {
		service, mocks := newTestService(t)
		cache := newFakeQuantityCache()
		WithQuantityCache(cache)(service)
		productID := uuid.New()

		mocks.batchRepo.On("SumActiveQuantity", ctx, productID).Return(int64(35), nil).Once()

		quantity, err := service.GetQuantity(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, int64(35), quantity)

		// Second read is served from cache.
		quantity, err = service.GetQuantity(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, int64(35), quantity)
		mocks.batchRepo.AssertNumberOfCalls(t, "SumActiveQuantity", 1)
	})

	t.Run("recompute refreshes the cache", func(t *testing.T) {
		service, mocks := newTestService(t)
		cache := newFakeQuantityCache()
		WithQuantityCache(cache)(service)
		product := testProduct(t)

		mocks.productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		mocks.batchRepo.On("SumActiveQuantity", mock.Anything, product.ID).Return(int64(12), nil)
		mocks.productRepo.On("UpdateQuantity", ctx, product.ID, int64(12)).Return(nil)

		_, err := service.RecomputeQuantity(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, int64(12), cache.values[product.ID])

		// The refreshed entry now serves reads without touching the ledger.
		quantity, err := service.GetQuantity(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12), quantity)
		mocks.batchRepo.AssertNumberOfCalls(t, "SumActiveQuantity", 1)
	})
}
