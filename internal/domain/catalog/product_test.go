package catalog

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct("SKU-001", "Desk Lamp")
		require.NoError(t, err)
		assert.Equal(t, "SKU-001", product.SKU)
		assert.Equal(t, "Desk Lamp", product.Name)
		assert.Equal(t, DefaultLowStockThreshold, product.LowStockThreshold)
		assert.True(t, product.Dimensions.Weight.IsZero())
		assert.NotEmpty(t, product.ID)
	})

	t.Run("name defaults to sku", func(t *testing.T) {
		product, err := NewProduct("SKU-002", "  ")
		require.NoError(t, err)
		assert.Equal(t, "SKU-002", product.Name)
	})

	t.Run("fails with empty sku", func(t *testing.T) {
		_, err := NewProduct(" ", "Desk Lamp")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SKU cannot be empty")
	})

	t.Run("fails with sku too long", func(t *testing.T) {
		_, err := NewProduct(strings.Repeat("A", 101), "Desk Lamp")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 100 characters")
	})

	t.Run("fails with name too long", func(t *testing.T) {
		_, err := NewProduct("SKU-003", strings.Repeat("n", 201))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 200 characters")
	})
}

func TestProduct_Label(t *testing.T) {
	product, err := NewProduct("LAMP-BLK", "Desk Lamp")
	require.NoError(t, err)
	assert.Equal(t, "LAMP-BLK (Desk Lamp)", product.Label())
}

func TestProduct_SetDimensions(t *testing.T) {
	product, err := NewProduct("SKU-001", "Desk Lamp")
	require.NoError(t, err)

	t.Run("rounds to two places", func(t *testing.T) {
		err := product.SetDimensions(Dimensions{
			Weight: decimal.RequireFromString("1.235"),
			Length: decimal.NewFromInt(30),
			Width:  decimal.NewFromFloat(12.5),
			Height: decimal.NewFromInt(8),
		})
		require.NoError(t, err)
		assert.Equal(t, "1.24", product.Dimensions.Weight.StringFixed(2))
		assert.Equal(t, "12.50", product.Dimensions.Width.StringFixed(2))
	})

	t.Run("rejects negative values", func(t *testing.T) {
		err := product.SetDimensions(Dimensions{Weight: decimal.NewFromInt(-1)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Weight cannot be negative")
	})
}

func TestProduct_SetLowStockThreshold(t *testing.T) {
	product, err := NewProduct("SKU-001", "Desk Lamp")
	require.NoError(t, err)

	require.NoError(t, product.SetLowStockThreshold(0))
	assert.Equal(t, 0, product.LowStockThreshold)
	assert.Error(t, product.SetLowStockThreshold(-5))
	assert.Error(t, product.SetLowStockThreshold(math.MaxInt32+1))
}

func TestProduct_SetFNSKU(t *testing.T) {
	product, err := NewProduct("SKU-001", "Desk Lamp")
	require.NoError(t, err)

	require.NoError(t, product.SetFNSKU(" X00ABC "))
	assert.Equal(t, "X00ABC", product.FNSKU)
	assert.Error(t, product.SetFNSKU(strings.Repeat("F", 101)))
}
