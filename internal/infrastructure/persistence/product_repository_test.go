package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/shared"
)

// newMockDB creates a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		categoryID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "sku", "name", "category_id", "unit_cost", "least_selling_price", "wholesale_price", "retail_price", "quantity", "reorder_level", "unit", "pack_size", "is_active"}).
			AddRow(productID, "ELE-SMA-0001", "Smartphone X", categoryID, decimal.NewFromInt(300), decimal.NewFromInt(350), decimal.NewFromInt(400), decimal.NewFromInt(499), int64(0), int64(10), "pcs", int64(1), true)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(productID, 1).
			WillReturnRows(rows)

		product, err := repo.FindByID(context.Background(), productID)

		require.NoError(t, err)
		assert.Equal(t, "ELE-SMA-0001", product.SKU)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "products"`).
			WithArgs(productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), productID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_UpdateQuantity(t *testing.T) {
	t.Run("writes the column directly", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		mock.ExpectExec(`UPDATE "products" SET "quantity"=\$1 WHERE id = \$2`).
			WithArgs(int64(80), productID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateQuantity(context.Background(), productID, 80)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown product yields ErrNotFound", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		mock.ExpectExec(`UPDATE "products" SET "quantity"=\$1 WHERE id = \$2`).
			WithArgs(int64(80), productID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateQuantity(context.Background(), productID, 80)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindLowStock(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(db)

	rows := sqlmock.NewRows([]string{"id", "sku", "name", "quantity", "reorder_level"}).
		AddRow(uuid.New(), "GRO-MIL-0001", "Milk 1L", int64(3), int64(10))

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE is_active = TRUE AND quantity <= reorder_level`).
		WillReturnRows(rows)

	products, err := repo.FindLowStock(context.Background(), shared.Filter{})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "GRO-MIL-0001", products[0].SKU)
}
