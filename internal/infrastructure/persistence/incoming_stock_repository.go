package persistence

import (
	"context"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIncomingStockRepository implements IncomingStockRepository using GORM
type GormIncomingStockRepository struct {
	db *gorm.DB
}

// NewGormIncomingStockRepository creates a new GormIncomingStockRepository
func NewGormIncomingStockRepository(db *gorm.DB) *GormIncomingStockRepository {
	return &GormIncomingStockRepository{db: db}
}

// FindByID finds a shipment by its ID
func (r *GormIncomingStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.IncomingStock, error) {
	var model models.IncomingStockModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a shipment by its ID and locks the row where supported
func (r *GormIncomingStockRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.IncomingStock, error) {
	var model models.IncomingStockModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists shipments by expected arrival, latest first
func (r *GormIncomingStockRepository) FindAll(ctx context.Context, filter inventory.IncomingFilter) ([]inventory.IncomingStock, error) {
	var rows []models.IncomingStockModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.IncomingStockModel{}), filter).
		Order("expected_arrival_date DESC").
		Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	shipments := make([]inventory.IncomingStock, len(rows))
	for i := range rows {
		shipments[i] = *rows[i].ToDomain()
	}
	return shipments, nil
}

// Count counts shipments matching the filter
func (r *GormIncomingStockRepository) Count(ctx context.Context, filter inventory.IncomingFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.IncomingStockModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a shipment
func (r *GormIncomingStockRepository) Save(ctx context.Context, shipment *inventory.IncomingStock) error {
	return translateError(r.db.WithContext(ctx).Save(models.IncomingStockModelFromDomain(shipment)).Error)
}

// Delete removes a shipment
func (r *GormIncomingStockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.IncomingStockModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type quantityByKeyRow struct {
	RefID    uuid.UUID
	Quantity int64
}

// PendingQuantityByProduct sums PENDING quantities per product.
// An empty productIDs slice means every product.
func (r *GormIncomingStockRepository) PendingQuantityByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	query := r.db.WithContext(ctx).
		Model(&models.IncomingStockModel{}).
		Select("product_id AS ref_id, COALESCE(SUM(quantity), 0) AS quantity").
		Where("status = ?", string(inventory.IncomingStatusPending)).
		Group("product_id")
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	return scanQuantities(query)
}

// PendingQuantityByWarehouse sums PENDING quantities per warehouse
func (r *GormIncomingStockRepository) PendingQuantityByWarehouse(ctx context.Context) (map[uuid.UUID]int, error) {
	query := r.db.WithContext(ctx).
		Model(&models.IncomingStockModel{}).
		Select("warehouse_id AS ref_id, COALESCE(SUM(quantity), 0) AS quantity").
		Where("status = ?", string(inventory.IncomingStatusPending)).
		Group("warehouse_id")
	return scanQuantities(query)
}

// ExistsByWarehouse checks whether any shipment references the warehouse
func (r *GormIncomingStockRepository) ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.IncomingStockModel{}, "warehouse_id = ?", warehouseID)
}

// ExistsByProduct checks whether any shipment references the product
func (r *GormIncomingStockRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.IncomingStockModel{}, "product_id = ?", productID)
}

// ReassignWarehouse moves every shipment from one warehouse to another
func (r *GormIncomingStockRepository) ReassignWarehouse(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.IncomingStockModel{}).
		Where("warehouse_id = ?", fromID).
		UpdateColumn("warehouse_id", toID)
	return result.RowsAffected, result.Error
}

func (r *GormIncomingStockRepository) applyFilter(query *gorm.DB, filter inventory.IncomingFilter) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Search != "" {
		query = query.Where("LOWER(notes) LIKE ?", containsPattern(filter.Search))
	}
	return query
}

func scanQuantities(query *gorm.DB) (map[uuid.UUID]int, error) {
	var rows []quantityByKeyRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.RefID] = int(row.Quantity)
	}
	return out, nil
}

// Ensure GormIncomingStockRepository implements IncomingStockRepository
var _ inventory.IncomingStockRepository = (*GormIncomingStockRepository)(nil)
