package persistence

import (
	"context"
	"strings"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductionOrderRepository implements ProductionOrderRepository using GORM
type GormProductionOrderRepository struct {
	db *gorm.DB
}

// NewGormProductionOrderRepository creates a new GormProductionOrderRepository
func NewGormProductionOrderRepository(db *gorm.DB) *GormProductionOrderRepository {
	return &GormProductionOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormProductionOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ProductionOrder, error) {
	var model models.ProductionOrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders newest first
func (r *GormProductionOrderRepository) FindAll(ctx context.Context, filter inventory.ProductionOrderFilter) ([]inventory.ProductionOrder, error) {
	var rows []models.ProductionOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductionOrderModel{}), filter).
		Order("created_at DESC").
		Order("id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

// Count counts orders matching the filter
func (r *GormProductionOrderRepository) Count(ctx context.Context, filter inventory.ProductionOrderFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductionOrderModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindOpenForDeduction returns orders with remaining capacity, oldest first
func (r *GormProductionOrderRepository) FindOpenForDeduction(ctx context.Context, productID uuid.UUID) ([]inventory.ProductionOrder, error) {
	var rows []models.ProductionOrderModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("product_id = ? AND remaining_quantity > 0", productID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

// FindForRestoration returns orders that have claimed capacity, newest first
func (r *GormProductionOrderRepository) FindForRestoration(ctx context.Context, productID uuid.UUID) ([]inventory.ProductionOrder, error) {
	var rows []models.ProductionOrderModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("product_id = ? AND remaining_quantity < quantity", productID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

// ExistsByOrderNumber checks for another order of the product with the same number
func (r *GormProductionOrderRepository) ExistsByOrderNumber(ctx context.Context, productID uuid.UUID, orderNumber string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.ProductionOrderModel{}).
		Where("product_id = ? AND order_number = ?", productID, strings.TrimSpace(orderNumber))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// OpenRemainingByProduct sums remaining quantity per product.
// An empty productIDs slice means every product.
func (r *GormProductionOrderRepository) OpenRemainingByProduct(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductionOrderModel{}).
		Select("product_id AS ref_id, COALESCE(SUM(remaining_quantity), 0) AS quantity").
		Where("remaining_quantity > 0").
		Group("product_id")
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	return scanQuantities(query)
}

// ExistsByProduct checks whether any order references the product
func (r *GormProductionOrderRepository) ExistsByProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.ProductionOrderModel{}, "product_id = ?", productID)
}

// Save creates or updates an order
func (r *GormProductionOrderRepository) Save(ctx context.Context, order *inventory.ProductionOrder) error {
	return translateError(r.db.WithContext(ctx).Save(models.ProductionOrderModelFromDomain(order)).Error)
}

// Delete removes an order
func (r *GormProductionOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductionOrderModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProductionOrderRepository) applyFilter(query *gorm.DB, filter inventory.ProductionOrderFilter) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		switch *filter.Status {
		case inventory.ProductionOrderInProduction:
			query = query.Where("remaining_quantity = quantity")
		case inventory.ProductionOrderPartial:
			query = query.Where("remaining_quantity > 0 AND remaining_quantity < quantity")
		case inventory.ProductionOrderComplete:
			query = query.Where("remaining_quantity = 0")
		}
	}
	if filter.Search != "" {
		query = query.Where("LOWER(order_number) LIKE ?", containsPattern(filter.Search))
	}
	return query
}

func ordersToDomain(rows []models.ProductionOrderModel) []inventory.ProductionOrder {
	orders := make([]inventory.ProductionOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// Ensure GormProductionOrderRepository implements ProductionOrderRepository
var _ inventory.ProductionOrderRepository = (*GormProductionOrderRepository)(nil)
