package inventory

import (
	"context"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// The allocation walk relies on this: ProductionOrders() is the repository
// whose row locks protect remaining_quantity until commit.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Warehouses() catalog.WarehouseRepository
	Movements() inventory.StockMovementRepository
	IncomingStock() inventory.IncomingStockRepository
	ProductionOrders() inventory.ProductionOrderRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	products   catalog.ProductRepository
	warehouses catalog.WarehouseRepository
	movements  inventory.StockMovementRepository
	incoming   inventory.IncomingStockRepository
	orders     inventory.ProductionOrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	products catalog.ProductRepository,
	warehouses catalog.WarehouseRepository,
	movements inventory.StockMovementRepository,
	incoming inventory.IncomingStockRepository,
	orders inventory.ProductionOrderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		products:   products,
		warehouses: warehouses,
		movements:  movements,
		incoming:   incoming,
		orders:     orders,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() catalog.ProductRepository {
	return s.products
}

// Warehouses returns the warehouse repository.
func (s *NoOpTransactionScope) Warehouses() catalog.WarehouseRepository {
	return s.warehouses
}

// Movements returns the stock movement repository.
func (s *NoOpTransactionScope) Movements() inventory.StockMovementRepository {
	return s.movements
}

// IncomingStock returns the incoming shipment repository.
func (s *NoOpTransactionScope) IncomingStock() inventory.IncomingStockRepository {
	return s.incoming
}

// ProductionOrders returns the production order repository.
func (s *NoOpTransactionScope) ProductionOrders() inventory.ProductionOrderRepository {
	return s.orders
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
