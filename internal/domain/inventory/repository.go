package inventory

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementFilter narrows a movement listing
type MovementFilter struct {
	shared.Filter
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Type        *MovementType
	DateFrom    *time.Time
	DateTo      *time.Time
}

// IncomingFilter narrows an incoming shipment listing
type IncomingFilter struct {
	shared.Filter
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Status      *IncomingStatus
}

// ProductionOrderFilter narrows a production order listing
type ProductionOrderFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	Status    *ProductionOrderStatus
}

// StockMovementRepository persists the append-only movement ledger
type StockMovementRepository interface {
	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindAll lists movements ordered by date desc, then creation time desc
	FindAll(ctx context.Context, filter MovementFilter) ([]StockMovement, error)

	// Count counts movements matching the filter
	Count(ctx context.Context, filter MovementFilter) (int64, error)

	// Create appends a movement to the ledger
	Create(ctx context.Context, movement *StockMovement) error

	// Delete removes a movement
	Delete(ctx context.Context, id uuid.UUID) error

	// SumStock returns sum(IN) - sum(OUT) for a product, optionally limited to
	// one warehouse and to movements dated on or before asOf
	SumStock(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, asOf *time.Time) (int, error)

	// StockLevels returns the stock of every product/warehouse pair that has
	// movements, optionally as of a date
	StockLevels(ctx context.Context, productIDs []uuid.UUID, asOf *time.Time) ([]StockLevel, error)

	// WarehouseTotals returns the total stock held by each warehouse
	WarehouseTotals(ctx context.Context) (map[uuid.UUID]int, error)

	// ExistsByWarehouse checks whether any movement references the warehouse
	ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error)

	// ExistsByProduct checks whether any movement references the product
	ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error)

	// ReassignWarehouse moves every movement from one warehouse to another
	ReassignWarehouse(ctx context.Context, fromID, toID uuid.UUID) (int64, error)
}

// IncomingStockRepository persists in-transit shipments
type IncomingStockRepository interface {
	// FindByID finds a shipment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*IncomingStock, error)

	// FindByIDForUpdate finds a shipment and locks it for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*IncomingStock, error)

	// FindAll lists shipments ordered by expected arrival desc, then creation time desc
	FindAll(ctx context.Context, filter IncomingFilter) ([]IncomingStock, error)

	// Count counts shipments matching the filter
	Count(ctx context.Context, filter IncomingFilter) (int64, error)

	// Save creates or updates a shipment
	Save(ctx context.Context, shipment *IncomingStock) error

	// Delete removes a shipment
	Delete(ctx context.Context, id uuid.UUID) error

	// PendingQuantityByProduct sums PENDING quantities per product
	PendingQuantityByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error)

	// PendingQuantityByWarehouse sums PENDING quantities per warehouse
	PendingQuantityByWarehouse(ctx context.Context) (map[uuid.UUID]int, error)

	// ExistsByWarehouse checks whether any shipment references the warehouse
	ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error)

	// ExistsByProduct checks whether any shipment references the product
	ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error)

	// ReassignWarehouse moves every shipment from one warehouse to another
	ReassignWarehouse(ctx context.Context, fromID, toID uuid.UUID) (int64, error)
}

// ProductionOrderRepository persists production orders
type ProductionOrderRepository interface {
	// FindByID finds an order by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionOrder, error)

	// FindAll lists orders ordered by creation time desc
	FindAll(ctx context.Context, filter ProductionOrderFilter) ([]ProductionOrder, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter ProductionOrderFilter) (int64, error)

	// FindOpenForDeduction returns the product's orders with remaining > 0,
	// oldest first, locked for update where the database supports it
	FindOpenForDeduction(ctx context.Context, productID uuid.UUID) ([]ProductionOrder, error)

	// FindForRestoration returns all of the product's orders, newest first,
	// locked for update where the database supports it
	FindForRestoration(ctx context.Context, productID uuid.UUID) ([]ProductionOrder, error)

	// ExistsByOrderNumber checks for another order of the product with the same number
	ExistsByOrderNumber(ctx context.Context, productID uuid.UUID, orderNumber string, excludeID *uuid.UUID) (bool, error)

	// OpenRemainingByProduct sums remaining quantity per product
	OpenRemainingByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error)

	// ExistsByProduct checks whether any order references the product
	ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error)

	// Save creates or updates an order
	Save(ctx context.Context, order *ProductionOrder) error

	// Delete removes an order
	Delete(ctx context.Context, id uuid.UUID) error
}
