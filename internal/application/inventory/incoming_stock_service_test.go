package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestProduct(sku string) *catalog.Product {
	p, _ := catalog.NewProduct(sku, sku)
	return p
}

func newTestWarehouse(code string) *catalog.Warehouse {
	w, _ := catalog.NewWarehouse(code, "Warehouse "+code, "")
	return w
}

func newTestOrder(productID uuid.UUID, number string, quantity, remaining int, created time.Time) inventory.ProductionOrder {
	o, _ := inventory.NewProductionOrder(productID, number, quantity)
	o.RemainingQuantity = remaining
	o.CreatedAt = created
	return *o
}

func newTestShipment(productID, warehouseID uuid.UUID, quantity int, status inventory.IncomingStatus) *inventory.IncomingStock {
	s, _ := inventory.NewIncomingStock(productID, warehouseID, quantity, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), "")
	s.Status = status
	return s
}

// savedOrders collects every order saved through the mock, keyed by id
func savedOrders(orders *MockProductionOrderRepository) map[uuid.UUID]inventory.ProductionOrder {
	saved := map[uuid.UUID]inventory.ProductionOrder{}
	orders.On("Save", mock.Anything, mock.AnythingOfType("*inventory.ProductionOrder")).
		Run(func(args mock.Arguments) {
			o := args.Get(1).(*inventory.ProductionOrder)
			saved[o.ID] = *o
		}).
		Return(nil)
	return saved
}

func newTestIncomingService(r *mockRepos, locker ProductLocker) *IncomingStockService {
	allocator := NewAllocator(r.scope, locker, nil)
	return NewIncomingStockService(r.incoming, r.scope, locker, allocator, nil)
}

func TestIncomingStockService_Create(t *testing.T) {
	ctx := context.Background()
	product := newTestProduct("SKU-1")
	warehouse := newTestWarehouse("MAIN")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("claims capacity oldest order first", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})

		older := newTestOrder(product.ID, "PO-1", 10, 5, base)
		newer := newTestOrder(product.ID, "PO-2", 10, 10, base.Add(time.Hour))

		r.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		r.warehouses.On("FindByID", mock.Anything, warehouse.ID).Return(warehouse, nil)
		r.incoming.On("Save", mock.Anything, mock.AnythingOfType("*inventory.IncomingStock")).Return(nil)
		r.orders.On("FindOpenForDeduction", mock.Anything, product.ID).
			Return([]inventory.ProductionOrder{newer, older}, nil).Once()
		saved := savedOrders(r.orders)

		outcome, err := svc.Create(ctx, CreateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            8,
			ExpectedArrivalDate: "2026-11-01",
		})
		require.NoError(t, err)

		assert.Empty(t, outcome.Warnings)
		require.Len(t, outcome.Allocations, 1)
		assert.Equal(t, 8, outcome.Allocations[0].Applied)
		assert.Equal(t, 2, outcome.Allocations[0].Touched)
		assert.Equal(t, 0, saved[older.ID].RemainingQuantity)
		assert.Equal(t, 7, saved[newer.ID].RemainingQuantity)
		assert.Equal(t, "PENDING", outcome.Shipment.Status)
		assert.Equal(t, "2026-11-01", outcome.Shipment.ExpectedArrivalDate)
		r.incoming.AssertExpectations(t)
	})

	t.Run("warns when the product has no open orders", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})

		r.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		r.warehouses.On("FindByID", mock.Anything, warehouse.ID).Return(warehouse, nil)
		r.incoming.On("Save", mock.Anything, mock.AnythingOfType("*inventory.IncomingStock")).Return(nil)
		r.orders.On("FindOpenForDeduction", mock.Anything, product.ID).
			Return([]inventory.ProductionOrder{}, nil)

		outcome, err := svc.Create(ctx, CreateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            5,
			ExpectedArrivalDate: "2026-11-01",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{WarningNoOpenOrders}, outcome.Warnings)
		assert.Equal(t, 5, outcome.Allocations[0].Unallocated)
		r.incoming.AssertCalled(t, "Save", mock.Anything, mock.AnythingOfType("*inventory.IncomingStock"))
		r.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("warns when the quantity exceeds open capacity", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})

		only := newTestOrder(product.ID, "PO-1", 10, 3, base)
		r.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		r.warehouses.On("FindByID", mock.Anything, warehouse.ID).Return(warehouse, nil)
		r.incoming.On("Save", mock.Anything, mock.AnythingOfType("*inventory.IncomingStock")).Return(nil)
		r.orders.On("FindOpenForDeduction", mock.Anything, product.ID).
			Return([]inventory.ProductionOrder{only}, nil).Once()
		saved := savedOrders(r.orders)

		outcome, err := svc.Create(ctx, CreateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            5,
			ExpectedArrivalDate: "2026-11-01",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{WarningExcessDropped}, outcome.Warnings)
		assert.Equal(t, 2, outcome.Allocations[0].Unallocated)
		assert.Equal(t, 0, saved[only.ID].RemainingQuantity)
	})

	t.Run("rejects an unknown product", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})

		r.products.On("FindByID", mock.Anything, product.ID).Return(nil, shared.ErrNotFound)

		_, err := svc.Create(ctx, CreateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            5,
			ExpectedArrivalDate: "2026-11-01",
		})
		require.Error(t, err)
		assert.Equal(t, "INVALID_PRODUCT", shared.CodeOf(err))
		r.incoming.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})

		_, err := svc.Create(ctx, CreateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            5,
			ExpectedArrivalDate: "01/11/2026",
		})
		assert.Equal(t, "INVALID_DATE", shared.CodeOf(err))
	})

	t.Run("propagates lock timeout", func(t *testing.T) {
		r := newMockRepos()
		locker := &recordingLocker{err: shared.ErrLockTimeout}
		svc := newTestIncomingService(r, locker)

		_, err := svc.Create(ctx, CreateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            5,
			ExpectedArrivalDate: "2026-11-01",
		})
		assert.True(t, errors.Is(err, shared.ErrLockTimeout))
		r.products.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestIncomingStockService_Update(t *testing.T) {
	ctx := context.Background()
	warehouse := newTestWarehouse("MAIN")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("quantity increase claims only the difference", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		product := newTestProduct("SKU-1")
		shipment := newTestShipment(product.ID, warehouse.ID, 4, inventory.IncomingStatusPending)
		order := newTestOrder(product.ID, "PO-1", 20, 16, base)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("Save", mock.Anything, shipment).Return(nil)
		r.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		r.warehouses.On("FindByID", mock.Anything, warehouse.ID).Return(warehouse, nil)
		r.orders.On("FindOpenForDeduction", mock.Anything, product.ID).
			Return([]inventory.ProductionOrder{order}, nil).Once()
		saved := savedOrders(r.orders)

		outcome, err := svc.Update(ctx, shipment.ID, UpdateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            10,
			ExpectedArrivalDate: "2026-11-02",
			Status:              "PENDING",
		})
		require.NoError(t, err)
		require.Len(t, outcome.Allocations, 1)
		assert.Equal(t, 6, outcome.Allocations[0].Delta)
		assert.Equal(t, 10, saved[order.ID].RemainingQuantity)
		assert.Equal(t, 10, outcome.Shipment.Quantity)
	})

	t.Run("marking arrived releases the claim", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		product := newTestProduct("SKU-1")
		shipment := newTestShipment(product.ID, warehouse.ID, 4, inventory.IncomingStatusPending)
		order := newTestOrder(product.ID, "PO-1", 20, 16, base)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("Save", mock.Anything, shipment).Return(nil)
		r.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		r.warehouses.On("FindByID", mock.Anything, warehouse.ID).Return(warehouse, nil)
		r.orders.On("FindForRestoration", mock.Anything, product.ID).
			Return([]inventory.ProductionOrder{order}, nil).Once()
		saved := savedOrders(r.orders)

		outcome, err := svc.Update(ctx, shipment.ID, UpdateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            4,
			ExpectedArrivalDate: "2026-11-01",
			Status:              "ARRIVED",
		})
		require.NoError(t, err)
		assert.Equal(t, -4, outcome.Allocations[0].Delta)
		assert.Equal(t, 20, saved[order.ID].RemainingQuantity)
		assert.Empty(t, outcome.Warnings)
	})

	t.Run("changing the product moves the claim", func(t *testing.T) {
		r := newMockRepos()
		locker := &recordingLocker{}
		svc := newTestIncomingService(r, locker)
		oldProduct := newTestProduct("SKU-OLD")
		newProduct := newTestProduct("SKU-NEW")
		shipment := newTestShipment(oldProduct.ID, warehouse.ID, 5, inventory.IncomingStatusPending)
		oldOrder := newTestOrder(oldProduct.ID, "PO-OLD", 10, 5, base)
		newOrder := newTestOrder(newProduct.ID, "PO-NEW", 10, 10, base)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("Save", mock.Anything, shipment).Return(nil)
		r.products.On("FindByID", mock.Anything, newProduct.ID).Return(newProduct, nil)
		r.warehouses.On("FindByID", mock.Anything, warehouse.ID).Return(warehouse, nil)
		r.orders.On("FindForRestoration", mock.Anything, oldProduct.ID).
			Return([]inventory.ProductionOrder{oldOrder}, nil).Once()
		r.orders.On("FindOpenForDeduction", mock.Anything, newProduct.ID).
			Return([]inventory.ProductionOrder{newOrder}, nil).Once()
		saved := savedOrders(r.orders)

		outcome, err := svc.Update(ctx, shipment.ID, UpdateIncomingStockRequest{
			ProductID:           newProduct.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            3,
			ExpectedArrivalDate: "2026-11-01",
			Status:              "PENDING",
		})
		require.NoError(t, err)
		require.Len(t, outcome.Allocations, 2)
		assert.Equal(t, -5, outcome.Allocations[0].Delta)
		assert.Equal(t, 3, outcome.Allocations[1].Delta)
		assert.Equal(t, 10, saved[oldOrder.ID].RemainingQuantity)
		assert.Equal(t, 7, saved[newOrder.ID].RemainingQuantity)

		require.Len(t, locker.calls, 1)
		assert.Equal(t, LockOrder(oldProduct.ID, newProduct.ID), locker.calls[0])
		assert.Equal(t, 1, locker.released)
	})

	t.Run("arrived cannot return to pending", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		product := newTestProduct("SKU-1")
		shipment := newTestShipment(product.ID, warehouse.ID, 4, inventory.IncomingStatusArrived)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		r.warehouses.On("FindByID", mock.Anything, warehouse.ID).Return(warehouse, nil)

		_, err := svc.Update(ctx, shipment.ID, UpdateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            4,
			ExpectedArrivalDate: "2026-11-01",
			Status:              "PENDING",
		})
		assert.Equal(t, "INVALID_STATE_TRANSITION", shared.CodeOf(err))
		r.incoming.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		r.orders.AssertNotCalled(t, "FindOpenForDeduction", mock.Anything, mock.Anything)
	})

	t.Run("detects a product change made by someone else", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		product := newTestProduct("SKU-1")
		stale := newTestShipment(product.ID, warehouse.ID, 4, inventory.IncomingStatusPending)
		fresh := *stale
		fresh.ProductID = uuid.New()

		r.incoming.On("FindByID", mock.Anything, stale.ID).Return(stale, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, stale.ID).Return(&fresh, nil)

		_, err := svc.Update(ctx, stale.ID, UpdateIncomingStockRequest{
			ProductID:           product.ID,
			WarehouseID:         warehouse.ID,
			Quantity:            4,
			ExpectedArrivalDate: "2026-11-01",
			Status:              "PENDING",
		})
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}

func TestIncomingStockService_Delete(t *testing.T) {
	ctx := context.Background()
	product := newTestProduct("SKU-1")
	warehouse := newTestWarehouse("MAIN")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("pending shipment gives capacity back newest first", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		shipment := newTestShipment(product.ID, warehouse.ID, 6, inventory.IncomingStatusPending)
		older := newTestOrder(product.ID, "PO-1", 10, 0, base)
		newer := newTestOrder(product.ID, "PO-2", 10, 6, base.Add(time.Hour))

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("Delete", mock.Anything, shipment.ID).Return(nil)
		r.orders.On("FindForRestoration", mock.Anything, product.ID).
			Return([]inventory.ProductionOrder{older, newer}, nil).Once()
		saved := savedOrders(r.orders)

		outcome, err := svc.Delete(ctx, shipment.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, saved[newer.ID].RemainingQuantity)
		assert.Equal(t, 2, saved[older.ID].RemainingQuantity)
		assert.Equal(t, 2, outcome.Allocations[0].Touched)
		r.incoming.AssertExpectations(t)
	})

	t.Run("arrived shipment is removed without compensation", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		shipment := newTestShipment(product.ID, warehouse.ID, 6, inventory.IncomingStatusArrived)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("Delete", mock.Anything, shipment.ID).Return(nil)

		outcome, err := svc.Delete(ctx, shipment.ID)
		require.NoError(t, err)
		assert.Empty(t, outcome.Allocations)
		r.orders.AssertNotCalled(t, "FindForRestoration", mock.Anything, mock.Anything)
	})

	t.Run("unknown shipment", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		id := uuid.New()
		r.incoming.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Delete(ctx, id)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestIncomingStockService_Approve(t *testing.T) {
	ctx := context.Background()
	product := newTestProduct("SKU-1")
	warehouse := newTestWarehouse("MAIN")

	t.Run("records one IN movement and leaves orders alone", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		shipment := newTestShipment(product.ID, warehouse.ID, 7, inventory.IncomingStatusPending)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("Save", mock.Anything, shipment).Return(nil)
		var recorded *inventory.StockMovement
		r.movements.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockMovement")).
			Run(func(args mock.Arguments) { recorded = args.Get(1).(*inventory.StockMovement) }).
			Return(nil)

		outcome, err := svc.Approve(ctx, shipment.ID)
		require.NoError(t, err)
		require.NotNil(t, recorded)
		assert.Equal(t, inventory.MovementTypeIn, recorded.Type)
		assert.Equal(t, 7, recorded.Quantity)
		assert.Equal(t, warehouse.ID, recorded.WarehouseID)
		assert.Equal(t, shared.Today(), recorded.Date)
		assert.Equal(t, "ARRIVED", outcome.Shipment.Status)
		require.NotNil(t, outcome.Movement)
		assert.Empty(t, outcome.Warnings)
		r.orders.AssertNotCalled(t, "FindOpenForDeduction", mock.Anything, mock.Anything)
		r.orders.AssertNotCalled(t, "FindForRestoration", mock.Anything, mock.Anything)
	})

	t.Run("already arrived is a warning, not an error", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		shipment := newTestShipment(product.ID, warehouse.ID, 7, inventory.IncomingStatusArrived)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)

		outcome, err := svc.Approve(ctx, shipment.ID)
		require.NoError(t, err)
		assert.True(t, outcome.HasWarning(WarningAlreadyArrived))
		assert.Nil(t, outcome.Movement)
		r.movements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		r.incoming.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("movement failure is returned", func(t *testing.T) {
		r := newMockRepos()
		svc := newTestIncomingService(r, NoOpProductLocker{})
		shipment := newTestShipment(product.ID, warehouse.ID, 7, inventory.IncomingStatusPending)

		r.incoming.On("FindByID", mock.Anything, shipment.ID).Return(shipment, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, shipment.ID).Return(shipment, nil)
		r.movements.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := svc.Approve(ctx, shipment.ID)
		assert.EqualError(t, err, "disk full")
		r.incoming.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestIncomingStockService_BatchApprove(t *testing.T) {
	ctx := context.Background()
	product := newTestProduct("SKU-1")
	warehouse := newTestWarehouse("MAIN")
	r := newMockRepos()
	svc := newTestIncomingService(r, NoOpProductLocker{})

	pending := newTestShipment(product.ID, warehouse.ID, 3, inventory.IncomingStatusPending)
	arrived := newTestShipment(product.ID, warehouse.ID, 3, inventory.IncomingStatusArrived)
	missing := uuid.New()

	for _, s := range []*inventory.IncomingStock{pending, arrived} {
		r.incoming.On("FindByID", mock.Anything, s.ID).Return(s, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, s.ID).Return(s, nil)
	}
	r.incoming.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	r.incoming.On("Save", mock.Anything, pending).Return(nil)
	r.movements.On("Create", mock.Anything, mock.Anything).Return(nil)

	result := svc.BatchApprove(ctx, []uuid.UUID{pending.ID, arrived.ID, missing})

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing, result.Errors[0].ID)
	assert.Equal(t, "NOT_FOUND", result.Errors[0].Code)
	r.movements.AssertNumberOfCalls(t, "Create", 1)
}

func TestIncomingStockService_BatchDelete(t *testing.T) {
	ctx := context.Background()
	product := newTestProduct("SKU-1")
	warehouse := newTestWarehouse("MAIN")
	r := newMockRepos()
	svc := newTestIncomingService(r, NoOpProductLocker{})

	arrived := newTestShipment(product.ID, warehouse.ID, 3, inventory.IncomingStatusArrived)
	broken := newTestShipment(product.ID, warehouse.ID, 3, inventory.IncomingStatusArrived)

	for _, s := range []*inventory.IncomingStock{arrived, broken} {
		r.incoming.On("FindByID", mock.Anything, s.ID).Return(s, nil)
		r.incoming.On("FindByIDForUpdate", mock.Anything, s.ID).Return(s, nil)
	}
	r.incoming.On("Delete", mock.Anything, arrived.ID).Return(nil)
	r.incoming.On("Delete", mock.Anything, broken.ID).Return(errors.New("connection reset"))

	result := svc.BatchDelete(ctx, []uuid.UUID{arrived.ID, broken.ID})

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "INTERNAL_ERROR", result.Errors[0].Code)
}

func TestWarningsFor(t *testing.T) {
	tests := []struct {
		name   string
		result *inventory.AllocationResult
		want   []string
	}{
		{"nil result", nil, nil},
		{"deduct with no orders", &inventory.AllocationResult{Direction: inventory.AllocationDeduct, Unallocated: 4}, []string{WarningNoOpenOrders}},
		{"deduct with excess", &inventory.AllocationResult{Direction: inventory.AllocationDeduct, Touched: 1, Unallocated: 2}, []string{WarningExcessDropped}},
		{"deduct fully applied", &inventory.AllocationResult{Direction: inventory.AllocationDeduct, Touched: 2}, nil},
		{"restore with excess", &inventory.AllocationResult{Direction: inventory.AllocationRestore, Unallocated: 3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, warningsFor(tt.result))
		})
	}
}

func TestClaimOf(t *testing.T) {
	assert.Equal(t, 5, claimOf(inventory.IncomingStatusPending, 5))
	assert.Equal(t, 0, claimOf(inventory.IncomingStatusArrived, 5))
}
