package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWarehouse(t *testing.T) {
	t.Run("upper-cases the code", func(t *testing.T) {
		w, err := NewWarehouse(" ga ", "Georgia", "1 Main St")
		require.NoError(t, err)
		assert.Equal(t, "GA", w.Code)
		assert.Equal(t, "Georgia", w.Name)
		assert.Equal(t, "1 Main St", w.Address)
	})

	t.Run("rejects invalid code characters", func(t *testing.T) {
		_, err := NewWarehouse("GA 1", "Georgia", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can only contain letters")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewWarehouse("GA", "", "")
		require.Error(t, err)
	})

	t.Run("rejects name too long", func(t *testing.T) {
		_, err := NewWarehouse("GA", strings.Repeat("x", 101), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 100 characters")
	})
}

func TestWarehouse_Update(t *testing.T) {
	w, err := NewWarehouse("CA", "California", "")
	require.NoError(t, err)

	require.NoError(t, w.Update("California West", "2 Ocean Ave"))
	assert.Equal(t, "California West", w.Name)
	assert.Equal(t, "2 Ocean Ave", w.Address)

	require.NoError(t, w.ChangeCode("ca-west"))
	assert.Equal(t, "CA-WEST", w.Code)
	assert.Error(t, w.ChangeCode(""))
}
