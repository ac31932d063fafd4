package inventory

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKUs(ctx context.Context, skus []string) (map[string]*catalog.Product, error) {
	args := m.Called(ctx, skus)
	return args.Get(0).(map[string]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) SearchBySKU(ctx context.Context, term string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, term, limit)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockWarehouseRepository is a mock implementation of catalog.WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindByCode(ctx context.Context, code string) (*catalog.Warehouse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Warehouse, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWarehouseRepository) ExistsByCode(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, code, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, warehouse *catalog.Warehouse) error {
	return m.Called(ctx, warehouse).Error(0)
}

func (m *MockWarehouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockMovementRepository is a mock implementation of inventory.StockMovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockMovement), args.Error(1)
}

func (m *MockMovementRepository) FindAll(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *MockMovementRepository) Count(ctx context.Context, filter inventory.MovementFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return m.Called(ctx, movement).Error(0)
}

func (m *MockMovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMovementRepository) SumStock(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, asOf *time.Time) (int, error) {
	args := m.Called(ctx, productID, warehouseID, asOf)
	return args.Int(0), args.Error(1)
}

func (m *MockMovementRepository) StockLevels(ctx context.Context, productIDs []uuid.UUID, asOf *time.Time) ([]inventory.StockLevel, error) {
	args := m.Called(ctx, productIDs, asOf)
	return args.Get(0).([]inventory.StockLevel), args.Error(1)
}

func (m *MockMovementRepository) WarehouseTotals(ctx context.Context) (map[uuid.UUID]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockMovementRepository) ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error) {
	args := m.Called(ctx, warehouseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMovementRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMovementRepository) ReassignWarehouse(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	args := m.Called(ctx, fromID, toID)
	return args.Get(0).(int64), args.Error(1)
}

// MockIncomingStockRepository is a mock implementation of inventory.IncomingStockRepository
type MockIncomingStockRepository struct {
	mock.Mock
}

func (m *MockIncomingStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.IncomingStock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.IncomingStock), args.Error(1)
}

func (m *MockIncomingStockRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.IncomingStock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.IncomingStock), args.Error(1)
}

func (m *MockIncomingStockRepository) FindAll(ctx context.Context, filter inventory.IncomingFilter) ([]inventory.IncomingStock, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.IncomingStock), args.Error(1)
}

func (m *MockIncomingStockRepository) Count(ctx context.Context, filter inventory.IncomingFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIncomingStockRepository) Save(ctx context.Context, shipment *inventory.IncomingStock) error {
	return m.Called(ctx, shipment).Error(0)
}

func (m *MockIncomingStockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockIncomingStockRepository) PendingQuantityByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, productIDs)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockIncomingStockRepository) PendingQuantityByWarehouse(ctx context.Context) (map[uuid.UUID]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockIncomingStockRepository) ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error) {
	args := m.Called(ctx, warehouseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIncomingStockRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIncomingStockRepository) ReassignWarehouse(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	args := m.Called(ctx, fromID, toID)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductionOrderRepository is a mock implementation of inventory.ProductionOrderRepository
type MockProductionOrderRepository struct {
	mock.Mock
}

func (m *MockProductionOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ProductionOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ProductionOrder), args.Error(1)
}

func (m *MockProductionOrderRepository) FindAll(ctx context.Context, filter inventory.ProductionOrderFilter) ([]inventory.ProductionOrder, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.ProductionOrder), args.Error(1)
}

func (m *MockProductionOrderRepository) Count(ctx context.Context, filter inventory.ProductionOrderFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductionOrderRepository) FindOpenForDeduction(ctx context.Context, productID uuid.UUID) ([]inventory.ProductionOrder, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]inventory.ProductionOrder), args.Error(1)
}

func (m *MockProductionOrderRepository) FindForRestoration(ctx context.Context, productID uuid.UUID) ([]inventory.ProductionOrder, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]inventory.ProductionOrder), args.Error(1)
}

func (m *MockProductionOrderRepository) ExistsByOrderNumber(ctx context.Context, productID uuid.UUID, orderNumber string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID, orderNumber, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductionOrderRepository) OpenRemainingByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, productIDs)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockProductionOrderRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductionOrderRepository) Save(ctx context.Context, order *inventory.ProductionOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockProductionOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// mockRepos bundles one mock per repository behind a NoOpTransactionScope
type mockRepos struct {
	products   *MockProductRepository
	warehouses *MockWarehouseRepository
	movements  *MockMovementRepository
	incoming   *MockIncomingStockRepository
	orders     *MockProductionOrderRepository
	scope      *NoOpTransactionScope
}

func newMockRepos() *mockRepos {
	r := &mockRepos{
		products:   new(MockProductRepository),
		warehouses: new(MockWarehouseRepository),
		movements:  new(MockMovementRepository),
		incoming:   new(MockIncomingStockRepository),
		orders:     new(MockProductionOrderRepository),
	}
	r.scope = NewNoOpTransactionScope(r.products, r.warehouses, r.movements, r.incoming, r.orders)
	return r
}

// recordingLocker records every Lock call
type recordingLocker struct {
	calls    [][]uuid.UUID
	released int
	err      error
}

func (l *recordingLocker) Lock(_ context.Context, ids ...uuid.UUID) (func(), error) {
	l.calls = append(l.calls, ids)
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}
