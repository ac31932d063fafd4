package inventory

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDuplicateOrderNumber is returned when a product already has an order with the same number
var ErrDuplicateOrderNumber = shared.NewDomainError("DUPLICATE_ORDER_NUMBER", "Order number already exists for this product")

// ProductionOrderService manages production orders. Edits take the product
// lock so that they never interleave with an allocation walk.
type ProductionOrderService struct {
	repo    inventory.ProductionOrderRepository
	txScope TransactionScope
	locker  ProductLocker
	metrics *telemetry.AllocationMetrics
	logger  *zap.Logger
}

// NewProductionOrderService creates a new ProductionOrderService
func NewProductionOrderService(
	repo inventory.ProductionOrderRepository,
	txScope TransactionScope,
	locker ProductLocker,
	logger *zap.Logger,
) *ProductionOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionOrderService{
		repo:    repo,
		txScope: txScope,
		locker:  locker,
		logger:  logger,
	}
}

// SetMetrics sets the allocation metrics recorder used for lock wait timing (optional)
func (s *ProductionOrderService) SetMetrics(m *telemetry.AllocationMetrics) {
	s.metrics = m
}

// Create creates an order whose whole quantity is still open
func (s *ProductionOrderService) Create(ctx context.Context, req CreateProductionOrderRequest) (*ProductionOrderResponse, error) {
	order, err := inventory.NewProductionOrder(req.ProductID, req.OrderNumber, req.Quantity)
	if err != nil {
		return nil, err
	}

	release, err := lockProducts(ctx, s.locker, s.metrics, "production_order.create", order.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Products().FindByID(ctx, order.ProductID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_PRODUCT", "Product does not exist")
			}
			return err
		}
		exists, err := repos.ProductionOrders().ExistsByOrderNumber(ctx, order.ProductID, order.OrderNumber, nil)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateOrderNumber
		}
		return repos.ProductionOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Production order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("quantity", order.Quantity))
	response := ToProductionOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a production order
func (s *ProductionOrderService) GetByID(ctx context.Context, id uuid.UUID) (*ProductionOrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductionOrderResponse(order)
	return &response, nil
}

// List retrieves production orders, newest first
func (s *ProductionOrderService) List(ctx context.Context, filter ProductionOrderListFilter) ([]ProductionOrderResponse, int64, error) {
	domainFilter := inventory.ProductionOrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		ProductID: filter.ProductID,
	}
	if domainFilter.Page <= 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize <= 0 {
		domainFilter.PageSize = 20
	}
	if filter.Status != "" {
		status := inventory.ProductionOrderStatus(filter.Status)
		domainFilter.Status = &status
	}

	orders, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ProductionOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToProductionOrderResponse(&orders[i])
	}
	return responses, total, nil
}

// Update renames an order and/or changes its quantity. A quantity change
// rescales the remaining quantity proportionally, rounding down.
func (s *ProductionOrderService) Update(ctx context.Context, id uuid.UUID, req UpdateProductionOrderRequest) (*ProductionOrderResponse, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	release, err := lockProducts(ctx, s.locker, s.metrics, "production_order.update", current.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	var order *inventory.ProductionOrder
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.ProductionOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.OrderNumber != nil {
			if err := order.ChangeOrderNumber(*req.OrderNumber); err != nil {
				return err
			}
			exists, err := repos.ProductionOrders().ExistsByOrderNumber(ctx, order.ProductID, order.OrderNumber, &order.ID)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateOrderNumber
			}
		}
		if req.Quantity != nil {
			before := order.RemainingQuantity
			if err := order.ChangeQuantity(*req.Quantity); err != nil {
				return err
			}
			if before != order.RemainingQuantity {
				s.logger.Info("Production order remaining rescaled",
					zap.String("order_id", order.ID.String()),
					zap.Int("remaining_before", before),
					zap.Int("remaining_after", order.RemainingQuantity))
			}
		}
		return repos.ProductionOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	response := ToProductionOrderResponse(order)
	return &response, nil
}

// Delete removes a production order. Claims held by shipments against it are
// not moved elsewhere.
func (s *ProductionOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	release, err := lockProducts(ctx, s.locker, s.metrics, "production_order.delete", current.ProductID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Production order deleted",
		zap.String("order_id", id.String()),
		zap.Int("claimed", current.Claimed()))
	return nil
}

// BatchDelete deletes each order independently
func (s *ProductionOrderService) BatchDelete(ctx context.Context, ids []uuid.UUID) *BatchResult {
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
