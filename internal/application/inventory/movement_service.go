package inventory

import (
	"context"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MovementService records and lists ledger entries. Movements never touch
// production orders; deleting one does not compensate anything.
type MovementService struct {
	repo    inventory.StockMovementRepository
	txScope TransactionScope
	logger  *zap.Logger
}

// NewMovementService creates a new MovementService
func NewMovementService(repo inventory.StockMovementRepository, txScope TransactionScope, logger *zap.Logger) *MovementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovementService{repo: repo, txScope: txScope, logger: logger}
}

// Record appends a movement. An empty date means today.
func (s *MovementService) Record(ctx context.Context, req RecordMovementRequest) (*MovementResponse, error) {
	date := shared.Today()
	if req.Date != "" {
		var err error
		if date, err = shared.ParseDate(req.Date); err != nil {
			return nil, err
		}
	}
	movementType, err := inventory.ParseMovementType(req.Type)
	if err != nil {
		return nil, err
	}
	movement, err := inventory.NewStockMovement(req.ProductID, req.WarehouseID, movementType, req.Quantity, date, req.Notes)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := ensureReferences(ctx, repos, movement.ProductID, movement.WarehouseID); err != nil {
			return err
		}
		return repos.Movements().Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock movement recorded",
		zap.String("movement_id", movement.ID.String()),
		zap.String("type", string(movement.Type)),
		zap.Int("quantity", movement.Quantity))
	response := ToMovementResponse(movement)
	return &response, nil
}

// GetByID retrieves a movement
func (s *MovementService) GetByID(ctx context.Context, id uuid.UUID) (*MovementResponse, error) {
	movement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToMovementResponse(movement)
	return &response, nil
}

// List retrieves movements ordered by date, newest first
func (s *MovementService) List(ctx context.Context, filter MovementListFilter) ([]MovementResponse, int64, error) {
	domainFilter, err := toMovementFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	movements, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses, total, nil
}

// Delete removes a movement
func (s *MovementService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Stock movement deleted", zap.String("movement_id", id.String()))
	return nil
}

// BatchDelete deletes each movement independently
func (s *MovementService) BatchDelete(ctx context.Context, ids []uuid.UUID) *BatchResult {
	result := NewBatchResult(len(ids))
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.Fail(id, errorCode(err), err.Error())
			continue
		}
		result.Succeeded++
	}
	return result
}

func toMovementFilter(filter MovementListFilter) (inventory.MovementFilter, error) {
	domainFilter := inventory.MovementFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		ProductID:   filter.ProductID,
		WarehouseID: filter.WarehouseID,
	}
	if domainFilter.Page <= 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize <= 0 {
		domainFilter.PageSize = 20
	}
	if filter.Type != "" {
		movementType, err := inventory.ParseMovementType(filter.Type)
		if err != nil {
			return domainFilter, err
		}
		domainFilter.Type = &movementType
	}
	if filter.DateFrom != "" {
		from, err := shared.ParseDate(filter.DateFrom)
		if err != nil {
			return domainFilter, err
		}
		domainFilter.DateFrom = &from
	}
	if filter.DateTo != "" {
		to, err := shared.ParseDate(filter.DateTo)
		if err != nil {
			return domainFilter, err
		}
		domainFilter.DateTo = &to
	}
	return domainFilter, nil
}
