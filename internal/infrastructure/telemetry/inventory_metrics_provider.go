package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInventoryMetricsProvider implements InventoryMetricsProvider using GORM.
// It aggregates the ledger tables directly.
type GormInventoryMetricsProvider struct {
	db *gorm.DB
}

// NewGormInventoryMetricsProvider creates a new GormInventoryMetricsProvider.
func NewGormInventoryMetricsProvider(db *gorm.DB) *GormInventoryMetricsProvider {
	return &GormInventoryMetricsProvider{db: db}
}

// PendingIncomingByWarehouse returns PENDING shipment quantity per warehouse.
func (p *GormInventoryMetricsProvider) PendingIncomingByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		WarehouseID uuid.UUID `gorm:"column:warehouse_id"`
		Quantity    int64     `gorm:"column:quantity"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("incoming_stock").
		Select("warehouse_id, COALESCE(SUM(quantity), 0) AS quantity").
		Where("status = ?", "PENDING").
		Group("warehouse_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.WarehouseID] = r.Quantity
	}
	return m, nil
}

// OpenProductionCapacity returns the remaining quantity across open production orders.
func (p *GormInventoryMetricsProvider) OpenProductionCapacity(ctx context.Context) (int64, error) {
	var total int64
	err := p.db.WithContext(ctx).
		Table("production_orders").
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Where("remaining_quantity > 0").
		Scan(&total).Error
	return total, err
}

// LowStockProductCount returns how many products sit below their threshold.
func (p *GormInventoryMetricsProvider) LowStockProductCount(ctx context.Context) (int64, error) {
	stock := p.db.
		Table("stock_movements").
		Select("COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)").
		Where("stock_movements.product_id = products.id")

	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("low_stock_threshold > 0").
		Where("(?) < low_stock_threshold", stock).
		Count(&count).Error
	return count, err
}

// Ensure GormInventoryMetricsProvider implements InventoryMetricsProvider
var _ InventoryMetricsProvider = (*GormInventoryMetricsProvider)(nil)
