package catalog

import (
	"context"
	"strings"

	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateWarehouseCode is returned when another warehouse already uses the code
	ErrDuplicateWarehouseCode = shared.NewDomainError("DUPLICATE_CODE", "Warehouse with this code already exists")
	// ErrWarehouseInUse is returned when deleting or recoding a warehouse the ledger references
	ErrWarehouseInUse = shared.NewDomainError("WAREHOUSE_IN_USE", "Warehouse is referenced by movements or shipments")
	// ErrMergeIntoSelf is returned when a warehouse is merged into itself
	ErrMergeIntoSelf = shared.NewDomainError("INVALID_MERGE", "Source and target warehouse must differ")
)

// WarehouseService handles warehouse master data and the merge repair operation
type WarehouseService struct {
	warehouseRepo catalog.WarehouseRepository
	movementRepo  inventory.StockMovementRepository
	incomingRepo  inventory.IncomingStockRepository
	txScope       appinv.TransactionScope
	logger        *zap.Logger
}

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(
	warehouseRepo catalog.WarehouseRepository,
	movementRepo inventory.StockMovementRepository,
	incomingRepo inventory.IncomingStockRepository,
	txScope appinv.TransactionScope,
	logger *zap.Logger,
) *WarehouseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WarehouseService{
		warehouseRepo: warehouseRepo,
		movementRepo:  movementRepo,
		incomingRepo:  incomingRepo,
		txScope:       txScope,
		logger:        logger,
	}
}

// Create creates a new warehouse
func (s *WarehouseService) Create(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	warehouse, err := catalog.NewWarehouse(req.Code, req.Name, req.Address)
	if err != nil {
		return nil, err
	}

	exists, err := s.warehouseRepo.ExistsByCode(ctx, warehouse.Code, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateWarehouseCode
	}

	if err := s.warehouseRepo.Save(ctx, warehouse); err != nil {
		return nil, err
	}

	s.logger.Info("Warehouse created", zap.String("warehouse_id", warehouse.ID.String()), zap.String("code", warehouse.Code))
	response := ToWarehouseResponse(warehouse)
	return &response, nil
}

// GetByID retrieves a warehouse by ID
func (s *WarehouseService) GetByID(ctx context.Context, id uuid.UUID) (*WarehouseResponse, error) {
	warehouse, err := s.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToWarehouseResponse(warehouse)
	return &response, nil
}

// List retrieves warehouses ordered by code
func (s *WarehouseService) List(ctx context.Context, filter WarehouseListFilter) ([]WarehouseResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "code"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}

	warehouses, err := s.warehouseRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.warehouseRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToWarehouseResponses(warehouses), total, nil
}

// Update updates a warehouse. The code can only change while no movement or
// shipment references the warehouse.
func (s *WarehouseService) Update(ctx context.Context, id uuid.UUID, req UpdateWarehouseRequest) (*WarehouseResponse, error) {
	warehouse, err := s.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil && !strings.EqualFold(strings.TrimSpace(*req.Code), warehouse.Code) {
		inUse, err := s.isReferenced(ctx, id)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, ErrWarehouseInUse
		}
		if err := warehouse.ChangeCode(*req.Code); err != nil {
			return nil, err
		}
		exists, err := s.warehouseRepo.ExistsByCode(ctx, warehouse.Code, &warehouse.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateWarehouseCode
		}
	}

	name, address := warehouse.Name, warehouse.Address
	if req.Name != nil {
		name = *req.Name
	}
	if req.Address != nil {
		address = *req.Address
	}
	if err := warehouse.Update(name, address); err != nil {
		return nil, err
	}

	if err := s.warehouseRepo.Save(ctx, warehouse); err != nil {
		return nil, err
	}
	response := ToWarehouseResponse(warehouse)
	return &response, nil
}

// Delete deletes a warehouse that no movement or shipment references
func (s *WarehouseService) Delete(ctx context.Context, id uuid.UUID) error {
	warehouse, err := s.warehouseRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.isReferenced(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrWarehouseInUse
	}

	if err := s.warehouseRepo.Delete(ctx, id); err != nil {
		if shared.CodeOf(err) == shared.ErrInUse.Code {
			return ErrWarehouseInUse
		}
		return err
	}
	s.logger.Info("Warehouse deleted", zap.String("warehouse_id", id.String()), zap.String("code", warehouse.Code))
	return nil
}

// BatchDelete deletes each warehouse independently
func (s *WarehouseService) BatchDelete(ctx context.Context, ids []uuid.UUID) *appinv.BatchResult {
	result := appinv.NewBatchResult(len(ids))
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.Fail(id, errorCode(err), err.Error())
			continue
		}
		result.Succeeded++
	}
	return result
}

// Merge moves every movement and shipment of the source warehouse to the
// target and deletes the source, all in one transaction. Stock per product is
// preserved across the two warehouses combined.
func (s *WarehouseService) Merge(ctx context.Context, sourceID, targetID uuid.UUID) (*MergeResult, error) {
	if sourceID == targetID {
		return nil, ErrMergeIntoSelf
	}

	result := &MergeResult{SourceID: sourceID, TargetID: targetID}
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		if _, err := repos.Warehouses().FindByID(ctx, sourceID); err != nil {
			return err
		}
		if _, err := repos.Warehouses().FindByID(ctx, targetID); err != nil {
			return err
		}

		var err error
		if result.MovementsMoved, err = repos.Movements().ReassignWarehouse(ctx, sourceID, targetID); err != nil {
			return err
		}
		if result.ShipmentsMoved, err = repos.IncomingStock().ReassignWarehouse(ctx, sourceID, targetID); err != nil {
			return err
		}
		return repos.Warehouses().Delete(ctx, sourceID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Warehouses merged",
		zap.String("source_id", sourceID.String()),
		zap.String("target_id", targetID.String()),
		zap.Int64("movements_moved", result.MovementsMoved),
		zap.Int64("shipments_moved", result.ShipmentsMoved))
	return result, nil
}

func (s *WarehouseService) isReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	found, err := s.movementRepo.ExistsByWarehouse(ctx, id)
	if err != nil || found {
		return found, err
	}
	return s.incomingRepo.ExistsByWarehouse(ctx, id)
}
