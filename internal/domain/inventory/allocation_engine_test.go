package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryOrderRepo is a ProductionOrderRepository backed by a slice
type memoryOrderRepo struct {
	orders  []ProductionOrder
	saves   int
	reads   int
	saveErr error
	failAt  int
}

func (r *memoryOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*ProductionOrder, error) {
	for i := range r.orders {
		if r.orders[i].ID == id {
			o := r.orders[i]
			return &o, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memoryOrderRepo) FindAll(context.Context, ProductionOrderFilter) ([]ProductionOrder, error) {
	return append([]ProductionOrder(nil), r.orders...), nil
}

func (r *memoryOrderRepo) Count(context.Context, ProductionOrderFilter) (int64, error) {
	return int64(len(r.orders)), nil
}

func (r *memoryOrderRepo) FindOpenForDeduction(_ context.Context, productID uuid.UUID) ([]ProductionOrder, error) {
	r.reads++
	out := make([]ProductionOrder, 0)
	for _, o := range r.orders {
		if o.ProductID == productID && o.RemainingQuantity > 0 {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memoryOrderRepo) FindForRestoration(_ context.Context, productID uuid.UUID) ([]ProductionOrder, error) {
	r.reads++
	out := make([]ProductionOrder, 0)
	for _, o := range r.orders {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memoryOrderRepo) ExistsByOrderNumber(context.Context, uuid.UUID, string, *uuid.UUID) (bool, error) {
	return false, nil
}

func (r *memoryOrderRepo) OpenRemainingByProduct(context.Context, []uuid.UUID) (map[uuid.UUID]int, error) {
	return map[uuid.UUID]int{}, nil
}

func (r *memoryOrderRepo) ExistsByProduct(context.Context, uuid.UUID) (bool, error) {
	return len(r.orders) > 0, nil
}

func (r *memoryOrderRepo) Save(_ context.Context, order *ProductionOrder) error {
	r.saves++
	if r.saveErr != nil && r.saves >= r.failAt {
		return r.saveErr
	}
	for i := range r.orders {
		if r.orders[i].ID == order.ID {
			r.orders[i] = *order
			return nil
		}
	}
	r.orders = append(r.orders, *order)
	return nil
}

func (r *memoryOrderRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (r *memoryOrderRepo) remaining(number string) int {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return o.RemainingQuantity
		}
	}
	return -1
}

func seedOrder(t *testing.T, repo *memoryOrderRepo, productID uuid.UUID, number string, qty, remaining int, createdAt time.Time) {
	t.Helper()
	o, err := NewProductionOrder(productID, number, qty)
	require.NoError(t, err)
	o.RemainingQuantity = remaining
	o.CreatedAt = createdAt
	repo.orders = append(repo.orders, *o)
}

func TestAllocationEngine_Adjust(t *testing.T) {
	ctx := context.Background()
	engine := NewAllocationEngine()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	t.Run("deduction walks oldest order first", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		// inserted newest first to prove ordering is by creation time
		seedOrder(t, repo, productID, "O2", 10, 10, base.Add(time.Hour))
		seedOrder(t, repo, productID, "O1", 5, 5, base)

		result, err := engine.Adjust(ctx, repo, productID, 8)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Touched)
		assert.Equal(t, 8, result.Applied)
		assert.Equal(t, 0, result.Unallocated)
		assert.Equal(t, 0, repo.remaining("O1"))
		assert.Equal(t, 7, repo.remaining("O2"))
		require.Len(t, result.Changes, 2)
		assert.Equal(t, "O1", result.Changes[0].OrderNumber)
		assert.Equal(t, 5, result.Changes[0].Amount)
		assert.Equal(t, 3, result.Changes[1].Amount)
	})

	t.Run("restoration walks newest order first and skips full orders", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, productID, "O1", 10, 2, base)
		seedOrder(t, repo, productID, "O2", 10, 10, base.Add(time.Hour))

		result, err := engine.Adjust(ctx, repo, productID, -5)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Touched)
		assert.Equal(t, 7, repo.remaining("O1"))
		assert.Equal(t, 10, repo.remaining("O2"))
		assert.Equal(t, AllocationRestore, result.Direction)
	})

	t.Run("restoration spreads across orders newest first", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, productID, "O1", 10, 0, base)
		seedOrder(t, repo, productID, "O2", 10, 6, base.Add(time.Hour))

		result, err := engine.Adjust(ctx, repo, productID, -7)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Touched)
		assert.Equal(t, 10, repo.remaining("O2"))
		assert.Equal(t, 3, repo.remaining("O1"))
	})

	t.Run("excess deduction is dropped without error", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, productID, "O1", 5, 5, base)

		result, err := engine.Adjust(ctx, repo, productID, 12)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Touched)
		assert.Equal(t, 5, result.Applied)
		assert.Equal(t, 7, result.Unallocated)
		assert.True(t, result.HasUnallocated())
		assert.Equal(t, 0, repo.remaining("O1"))
	})

	t.Run("excess restoration is dropped without error", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, productID, "O1", 5, 3, base)

		result, err := engine.Adjust(ctx, repo, productID, -10)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Applied)
		assert.Equal(t, 8, result.Unallocated)
		assert.Equal(t, 5, repo.remaining("O1"))
	})

	t.Run("no open orders touches nothing", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, productID, "O1", 5, 0, base)

		result, err := engine.Adjust(ctx, repo, productID, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Touched)
		assert.Equal(t, 100, result.Unallocated)
		assert.Equal(t, 0, repo.saves)
	})

	t.Run("zero delta never reads storage", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, productID, "O1", 5, 5, base)

		result, err := engine.Adjust(ctx, repo, productID, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Touched)
		assert.Equal(t, AllocationNone, result.Direction)
		assert.Equal(t, 0, repo.reads)
		assert.Equal(t, 0, repo.saves)
	})

	t.Run("other products are untouched", func(t *testing.T) {
		productID, otherID := uuid.New(), uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, otherID, "X1", 5, 5, base)
		seedOrder(t, repo, productID, "O1", 5, 5, base.Add(time.Minute))

		_, err := engine.Adjust(ctx, repo, productID, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, repo.remaining("X1"))
		assert.Equal(t, 0, repo.remaining("O1"))
	})

	t.Run("save failure is surfaced", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{saveErr: errors.New("disk full"), failAt: 2}
		seedOrder(t, repo, productID, "O1", 5, 5, base)
		seedOrder(t, repo, productID, "O2", 5, 5, base.Add(time.Hour))

		result, err := engine.Adjust(ctx, repo, productID, 8)
		require.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("remaining stays within bounds across a sequence of adjustments", func(t *testing.T) {
		productID := uuid.New()
		repo := &memoryOrderRepo{}
		seedOrder(t, repo, productID, "O1", 7, 7, base)
		seedOrder(t, repo, productID, "O2", 4, 4, base.Add(time.Hour))
		seedOrder(t, repo, productID, "O3", 9, 9, base.Add(2*time.Hour))

		for _, delta := range []int{5, -2, 13, -30, 40, -1, 6, -6, 0, 3} {
			_, err := engine.Adjust(ctx, repo, productID, delta)
			require.NoError(t, err)
			for _, o := range repo.orders {
				assert.GreaterOrEqual(t, o.RemainingQuantity, 0)
				assert.LessOrEqual(t, o.RemainingQuantity, o.Quantity)
			}
		}
	})
}

func TestPlanDeduction(t *testing.T) {
	productID := uuid.New()
	o1, _ := NewProductionOrder(productID, "A", 3)
	o2, _ := NewProductionOrder(productID, "B", 3)
	o2.RemainingQuantity = 0
	o3, _ := NewProductionOrder(productID, "C", 3)
	orders := []ProductionOrder{*o1, *o2, *o3}

	changes, left := PlanDeduction(orders, 4)
	assert.Equal(t, 0, left)
	require.Len(t, changes, 2)
	assert.Equal(t, "A", changes[0].OrderNumber)
	assert.Equal(t, "C", changes[1].OrderNumber)
	assert.Equal(t, 2, orders[2].RemainingQuantity)
}

func TestSortForRestoration_TieBreaksOnID(t *testing.T) {
	productID := uuid.New()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _ := NewProductionOrder(productID, "A", 1)
	b, _ := NewProductionOrder(productID, "B", 1)
	a.CreatedAt, b.CreatedAt = at, at

	orders := []ProductionOrder{*a, *b}
	SortForRestoration(orders)
	assert.True(t, orders[0].ID.String() > orders[1].ID.String())

	SortForDeduction(orders)
	assert.True(t, orders[0].ID.String() < orders[1].ID.String())
}
