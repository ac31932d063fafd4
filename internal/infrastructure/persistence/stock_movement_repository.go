package persistence

import (
	"context"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// signedQuantitySQL turns the ledger into a running balance: IN adds, OUT subtracts
const signedQuantitySQL = "COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)"

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// FindByID finds a movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	var model models.StockMovementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists movements newest first
func (r *GormStockMovementRepository) FindAll(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockMovementModel{}), filter).
		Order("date DESC").
		Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	movements := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, nil
}

// Count counts movements matching the filter
func (r *GormStockMovementRepository) Count(ctx context.Context, filter inventory.MovementFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockMovementModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create appends a movement to the ledger
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error)
}

// Delete removes a movement
func (r *GormStockMovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StockMovementModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumStock returns the balance of a product, optionally per warehouse and as of a date
func (r *GormStockMovementRepository) SumStock(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, asOf *time.Time) (int, error) {
	var total int64
	query := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select(signedQuantitySQL).
		Where("product_id = ?", productID)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}
	if asOf != nil {
		query = query.Where("date <= ?", shared.TruncateToDate(*asOf))
	}
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// stockLevelRow is the scan target for grouped balances
type stockLevelRow struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int64
}

// StockLevels returns the balance of every product/warehouse pair with movements.
// An empty productIDs slice means every product.
func (r *GormStockMovementRepository) StockLevels(ctx context.Context, productIDs []uuid.UUID, asOf *time.Time) ([]inventory.StockLevel, error) {
	var rows []stockLevelRow
	query := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("product_id, warehouse_id, " + signedQuantitySQL + " AS quantity").
		Group("product_id, warehouse_id")
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	if asOf != nil {
		query = query.Where("date <= ?", shared.TruncateToDate(*asOf))
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	levels := make([]inventory.StockLevel, len(rows))
	for i, row := range rows {
		levels[i] = inventory.StockLevel{
			ProductID:   row.ProductID,
			WarehouseID: row.WarehouseID,
			Quantity:    int(row.Quantity),
		}
	}
	return levels, nil
}

// warehouseTotalRow is the scan target for per-warehouse sums
type warehouseTotalRow struct {
	WarehouseID uuid.UUID
	Quantity    int64
}

// WarehouseTotals returns the total stock held by each warehouse
func (r *GormStockMovementRepository) WarehouseTotals(ctx context.Context) (map[uuid.UUID]int, error) {
	var rows []warehouseTotalRow
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("warehouse_id, " + signedQuantitySQL + " AS quantity").
		Group("warehouse_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		totals[row.WarehouseID] = int(row.Quantity)
	}
	return totals, nil
}

// ExistsByWarehouse checks whether any movement references the warehouse
func (r *GormStockMovementRepository) ExistsByWarehouse(ctx context.Context, warehouseID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.StockMovementModel{}, "warehouse_id = ?", warehouseID)
}

// ExistsByProduct checks whether any movement references the product
func (r *GormStockMovementRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.StockMovementModel{}, "product_id = ?", productID)
}

// ReassignWarehouse moves every movement from one warehouse to another
func (r *GormStockMovementRepository) ReassignWarehouse(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Where("warehouse_id = ?", fromID).
		UpdateColumn("warehouse_id", toID)
	return result.RowsAffected, result.Error
}

func (r *GormStockMovementRepository) applyFilter(query *gorm.DB, filter inventory.MovementFilter) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", shared.TruncateToDate(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("date <= ?", shared.TruncateToDate(*filter.DateTo))
	}
	if filter.Search != "" {
		query = query.Where("LOWER(notes) LIKE ?", containsPattern(filter.Search))
	}
	return query
}

// exists reports whether any row of a model table matches
func exists(ctx context.Context, db *gorm.DB, model any, cond string, args ...any) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where(cond, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
