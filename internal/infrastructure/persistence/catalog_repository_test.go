package persistence

import (
	"context"
	"testing"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProduct(t *testing.T, repo *GormProductRepository, sku, name string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, name)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func mustWarehouse(t *testing.T, repo *GormWarehouseRepository, code, name string) *catalog.Warehouse {
	t.Helper()
	w, err := catalog.NewWarehouse(code, name, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), w))
	return w
}

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a product", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteDatabase(t).DB)

		p, err := catalog.NewProduct("SKU-001", "Widget")
		require.NoError(t, err)
		require.NoError(t, p.SetFNSKU("X00ABC"))
		require.NoError(t, p.SetDimensions(catalog.Dimensions{
			Weight: decimal.NewFromFloat(1.25),
			Length: decimal.NewFromInt(10),
			Width:  decimal.NewFromInt(5),
			Height: decimal.NewFromInt(2),
		}))
		require.NoError(t, repo.Save(ctx, p))

		got, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "SKU-001", got.SKU)
		assert.Equal(t, "X00ABC", got.FNSKU)
		assert.True(t, decimal.NewFromFloat(1.25).Equal(got.Dimensions.Weight))
		assert.Equal(t, catalog.DefaultLowStockThreshold, got.LowStockThreshold)

		bySKU, err := repo.FindBySKU(ctx, " SKU-001 ")
		require.NoError(t, err)
		assert.Equal(t, p.ID, bySKU.ID)
	})

	t.Run("missing product is not found", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteDatabase(t).DB)

		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), shared.ErrNotFound)
	})

	t.Run("duplicate sku maps to already exists", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteDatabase(t).DB)
		mustProduct(t, repo, "DUP", "first")

		p, err := catalog.NewProduct("DUP", "second")
		require.NoError(t, err)
		err = repo.Save(ctx, p)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("search is case insensitive and limited", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteDatabase(t).DB)
		mustProduct(t, repo, "ABC-1", "")
		mustProduct(t, repo, "abc-2", "")
		mustProduct(t, repo, "XYZ-1", "")

		found, err := repo.SearchBySKU(ctx, "Abc", 20)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "ABC-1", found[0].SKU)

		limited, err := repo.SearchBySKU(ctx, "-1", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		none, err := repo.SearchBySKU(ctx, "  ", 20)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("exists by sku honours exclusion", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteDatabase(t).DB)
		p := mustProduct(t, repo, "ONE", "")

		ok, err := repo.ExistsBySKU(ctx, "ONE", nil)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsBySKU(ctx, "ONE", &p.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("lists with pagination and count", func(t *testing.T) {
		repo := NewGormProductRepository(newSQLiteDatabase(t).DB)
		for _, sku := range []string{"C", "A", "B"} {
			mustProduct(t, repo, sku, "")
		}

		page, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "A", page[0].SKU)
		assert.Equal(t, "B", page[1].SKU)

		count, err := repo.Count(ctx, shared.Filter{Search: "a"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		bySKU, err := repo.FindBySKUs(ctx, []string{"A", "C", "Z"})
		require.NoError(t, err)
		assert.Len(t, bySKU, 2)
		assert.Contains(t, bySKU, "C")
	})
}

func TestGormWarehouseRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("finds by code case-insensitively", func(t *testing.T) {
		repo := NewGormWarehouseRepository(newSQLiteDatabase(t).DB)
		w := mustWarehouse(t, repo, "main", "Main Warehouse")
		assert.Equal(t, "MAIN", w.Code)

		got, err := repo.FindByCode(ctx, "Main")
		require.NoError(t, err)
		assert.Equal(t, w.ID, got.ID)

		ok, err := repo.ExistsByCode(ctx, "MAIN", &w.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("lists ordered by code", func(t *testing.T) {
		repo := NewGormWarehouseRepository(newSQLiteDatabase(t).DB)
		mustWarehouse(t, repo, "WEST", "West")
		mustWarehouse(t, repo, "EAST", "East")

		list, err := repo.FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "EAST", list[0].Code)

		count, err := repo.Count(ctx, shared.Filter{Search: "we"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete of a referenced warehouse is refused", func(t *testing.T) {
		db := newSQLiteDatabase(t)
		warehouses := NewGormWarehouseRepository(db.DB)
		products := NewGormProductRepository(db.DB)
		movements := NewGormStockMovementRepository(db.DB)

		w := mustWarehouse(t, warehouses, "HELD", "Held")
		p := mustProduct(t, products, "SKU", "")
		require.NoError(t, movements.Create(ctx, newMovement(t, p.ID, w.ID, "IN", 5, day(2026, 1, 1))))

		err := warehouses.Delete(ctx, w.ID)
		assert.ErrorIs(t, err, shared.ErrInUse)
	})
}
