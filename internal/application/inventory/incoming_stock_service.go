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

// IncomingStockService coordinates the lifecycle of in-transit shipments.
// It is the only caller that derives allocation deltas from shipment changes.
// Every mutating operation holds the affected product locks and runs in a
// single transaction, so a failed allocation walk leaves nothing behind.
type IncomingStockService struct {
	repo      inventory.IncomingStockRepository
	txScope   TransactionScope
	locker    ProductLocker
	allocator *Allocator
	metrics   *telemetry.AllocationMetrics
	logger    *zap.Logger
}

// NewIncomingStockService creates a new IncomingStockService
func NewIncomingStockService(
	repo inventory.IncomingStockRepository,
	txScope TransactionScope,
	locker ProductLocker,
	allocator *Allocator,
	logger *zap.Logger,
) *IncomingStockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncomingStockService{
		repo:      repo,
		txScope:   txScope,
		locker:    locker,
		allocator: allocator,
		logger:    logger,
	}
}

// SetMetrics sets the allocation metrics recorder used for lock wait timing (optional)
func (s *IncomingStockService) SetMetrics(m *telemetry.AllocationMetrics) {
	s.metrics = m
}

// GetByID retrieves a shipment
func (s *IncomingStockService) GetByID(ctx context.Context, id uuid.UUID) (*IncomingStockResponse, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToIncomingStockResponse(shipment)
	return &response, nil
}

// List retrieves shipments ordered by expected arrival date, newest first
func (s *IncomingStockService) List(ctx context.Context, filter IncomingStockListFilter) ([]IncomingStockResponse, int64, error) {
	domainFilter := inventory.IncomingFilter{
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
	if filter.Status != "" {
		status := inventory.IncomingStatus(filter.Status)
		domainFilter.Status = &status
	}

	shipments, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]IncomingStockResponse, len(shipments))
	for i := range shipments {
		responses[i] = ToIncomingStockResponse(&shipments[i])
	}
	return responses, total, nil
}

// Create declares a PENDING shipment and claims its quantity from the
// product's open production orders. A product without open orders still gets
// the shipment; the outcome then carries NO_OPEN_ORDERS.
func (s *IncomingStockService) Create(ctx context.Context, req CreateIncomingStockRequest) (*IncomingStockOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "incoming_stock", "create",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID))
	defer span.End()

	expected, err := shared.ParseDate(req.ExpectedArrivalDate)
	if err != nil {
		return nil, err
	}
	shipment, err := inventory.NewIncomingStock(req.ProductID, req.WarehouseID, req.Quantity, expected, req.Notes)
	if err != nil {
		return nil, err
	}

	release, err := lockProducts(ctx, s.locker, s.metrics, "incoming_stock.create", shipment.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	outcome := &IncomingStockOutcome{Allocations: []*inventory.AllocationResult{}, Warnings: []string{}}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := ensureReferences(ctx, repos, shipment.ProductID, shipment.WarehouseID); err != nil {
			return err
		}
		if err := repos.IncomingStock().Save(ctx, shipment); err != nil {
			return err
		}
		return s.allocate(ctx, repos, outcome, shipment.ProductID, shipment.Quantity)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := ToIncomingStockResponse(shipment)
	outcome.Shipment = &response
	s.logOutcome("Incoming shipment created", shipment.ID, outcome)
	return outcome, nil
}

// Update edits a shipment and applies the allocation delta implied by the
// change of status and quantity. Moving a PENDING shipment to another product
// releases the old product's claim and makes a new claim on the new product.
func (s *IncomingStockService) Update(ctx context.Context, id uuid.UUID, req UpdateIncomingStockRequest) (*IncomingStockOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "incoming_stock", "update",
		telemetry.WithAttribute(telemetry.SpanAttrShipmentID, id))
	defer span.End()

	expected, err := shared.ParseDate(req.ExpectedArrivalDate)
	if err != nil {
		return nil, err
	}
	rev := inventory.IncomingRevision{
		ProductID:           req.ProductID,
		WarehouseID:         req.WarehouseID,
		Quantity:            req.Quantity,
		ExpectedArrivalDate: expected,
		Status:              inventory.IncomingStatus(req.Status),
		Notes:               req.Notes,
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	release, err := lockProducts(ctx, s.locker, s.metrics, "incoming_stock.update", current.ProductID, rev.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	outcome := &IncomingStockOutcome{Allocations: []*inventory.AllocationResult{}, Warnings: []string{}}
	var shipment *inventory.IncomingStock
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		shipment, err = repos.IncomingStock().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if shipment.ProductID != current.ProductID {
			return shared.ErrConcurrencyConflict
		}
		if err := ensureReferences(ctx, repos, rev.ProductID, rev.WarehouseID); err != nil {
			return err
		}

		fromProduct, fromStatus, fromQty := shipment.ProductID, shipment.Status, shipment.Quantity
		if err := shipment.Revise(rev); err != nil {
			return err
		}

		if fromProduct == shipment.ProductID {
			delta := inventory.AllocationDelta(fromStatus, fromQty, shipment.Status, shipment.Quantity)
			if err := s.allocate(ctx, repos, outcome, fromProduct, delta); err != nil {
				return err
			}
		} else {
			if err := s.allocate(ctx, repos, outcome, fromProduct, -claimOf(fromStatus, fromQty)); err != nil {
				return err
			}
			if err := s.allocate(ctx, repos, outcome, shipment.ProductID, claimOf(shipment.Status, shipment.Quantity)); err != nil {
				return err
			}
		}

		return repos.IncomingStock().Save(ctx, shipment)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := ToIncomingStockResponse(shipment)
	outcome.Shipment = &response
	s.logOutcome("Incoming shipment updated", shipment.ID, outcome)
	return outcome, nil
}

// Delete removes a shipment. A PENDING shipment first gives its quantity back
// to the production orders; an ARRIVED one is removed without compensation.
func (s *IncomingStockService) Delete(ctx context.Context, id uuid.UUID) (*IncomingStockOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "incoming_stock", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrShipmentID, id))
	defer span.End()

	outcome, err := s.withShipmentLock(ctx, id, "incoming_stock.delete", func(repos TransactionalRepositories, shipment *inventory.IncomingStock, outcome *IncomingStockOutcome) error {
		if shipment.IsPending() {
			if err := s.allocate(ctx, repos, outcome, shipment.ProductID, -shipment.Quantity); err != nil {
				return err
			}
		}
		return repos.IncomingStock().Delete(ctx, shipment.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logOutcome("Incoming shipment deleted", id, outcome)
	return outcome, nil
}

// Approve records the arrival of a PENDING shipment: one IN movement dated
// today, then status ARRIVED. Production orders are not touched since the
// quantity was claimed when the shipment was declared. Approving an ARRIVED
// shipment changes nothing and returns the ALREADY_ARRIVED warning.
func (s *IncomingStockService) Approve(ctx context.Context, id uuid.UUID) (*IncomingStockOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "incoming_stock", "approve",
		telemetry.WithAttribute(telemetry.SpanAttrShipmentID, id))
	defer span.End()

	outcome, err := s.withShipmentLock(ctx, id, "incoming_stock.approve", func(repos TransactionalRepositories, shipment *inventory.IncomingStock, outcome *IncomingStockOutcome) error {
		movement, err := shipment.Approve(shared.Today())
		if errors.Is(err, inventory.ErrAlreadyArrived) {
			outcome.warn(WarningAlreadyArrived)
			return nil
		}
		if err != nil {
			return err
		}
		if err := repos.Movements().Create(ctx, movement); err != nil {
			return err
		}
		if err := repos.IncomingStock().Save(ctx, shipment); err != nil {
			return err
		}
		response := ToMovementResponse(movement)
		outcome.Movement = &response
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if outcome.HasWarning(WarningAlreadyArrived) {
		s.logger.Warn("Incoming shipment already arrived", zap.String("shipment_id", id.String()))
	} else {
		s.logger.Info("Incoming shipment approved", zap.String("shipment_id", id.String()))
	}
	return outcome, nil
}

// BatchApprove approves each shipment independently. ARRIVED shipments are
// skipped, unknown ids and errors are counted as failures.
func (s *IncomingStockService) BatchApprove(ctx context.Context, ids []uuid.UUID) *BatchResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "incoming_stock", "batch_approve",
		telemetry.WithAttribute(telemetry.SpanAttrBatchSize, len(ids)))
	defer span.End()

	result := NewBatchResult(len(ids))
	for _, id := range ids {
		outcome, err := s.Approve(ctx, id)
		switch {
		case err != nil:
			result.Fail(id, errorCode(err), err.Error())
		case outcome.HasWarning(WarningAlreadyArrived):
			result.Skipped++
		default:
			result.Succeeded++
		}
	}

	s.logger.Info("Batch approve finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result
}

// BatchDelete deletes each shipment independently with the same compensation
// rules as Delete.
func (s *IncomingStockService) BatchDelete(ctx context.Context, ids []uuid.UUID) *BatchResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "incoming_stock", "batch_delete",
		telemetry.WithAttribute(telemetry.SpanAttrBatchSize, len(ids)))
	defer span.End()

	result := NewBatchResult(len(ids))
	for _, id := range ids {
		if _, err := s.Delete(ctx, id); err != nil {
			result.Fail(id, errorCode(err), err.Error())
			continue
		}
		result.Succeeded++
	}

	s.logger.Info("Batch delete of incoming shipments finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result
}

// withShipmentLock locks the shipment's product and runs fn in a transaction
// with the shipment row re-read under lock.
func (s *IncomingStockService) withShipmentLock(
	ctx context.Context,
	id uuid.UUID,
	operation string,
	fn func(repos TransactionalRepositories, shipment *inventory.IncomingStock, outcome *IncomingStockOutcome) error,
) (*IncomingStockOutcome, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	release, err := lockProducts(ctx, s.locker, s.metrics, operation, current.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	outcome := &IncomingStockOutcome{Allocations: []*inventory.AllocationResult{}, Warnings: []string{}}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		shipment, err := repos.IncomingStock().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if shipment.ProductID != current.ProductID {
			return shared.ErrConcurrencyConflict
		}
		if err := fn(repos, shipment, outcome); err != nil {
			return err
		}
		response := ToIncomingStockResponse(shipment)
		outcome.Shipment = &response
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// allocate runs one adjustment and folds its result into the outcome
func (s *IncomingStockService) allocate(ctx context.Context, repos TransactionalRepositories, outcome *IncomingStockOutcome, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	result, err := s.allocator.AdjustWithin(ctx, repos, productID, delta)
	if err != nil {
		return err
	}
	outcome.Allocations = append(outcome.Allocations, result)
	for _, w := range warningsFor(result) {
		outcome.warn(w)
	}
	return nil
}

func (s *IncomingStockService) logOutcome(msg string, id uuid.UUID, outcome *IncomingStockOutcome) {
	fields := []zap.Field{
		zap.String("shipment_id", id.String()),
		zap.Int("allocations", len(outcome.Allocations)),
	}
	if len(outcome.Warnings) > 0 {
		s.logger.Warn(msg, append(fields, zap.Strings("warnings", outcome.Warnings))...)
		return
	}
	s.logger.Info(msg, fields...)
}

// claimOf is the production capacity a shipment holds in the given state
func claimOf(status inventory.IncomingStatus, quantity int) int {
	if status == inventory.IncomingStatusPending {
		return quantity
	}
	return 0
}

// ensureReferences checks that the product and warehouse exist
func ensureReferences(ctx context.Context, repos TransactionalRepositories, productID, warehouseID uuid.UUID) error {
	if _, err := repos.Products().FindByID(ctx, productID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_PRODUCT", "Product does not exist")
		}
		return err
	}
	if _, err := repos.Warehouses().FindByID(ctx, warehouseID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse does not exist")
		}
		return err
	}
	return nil
}

// errorCode returns the domain code of err, or INTERNAL_ERROR
func errorCode(err error) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return "INTERNAL_ERROR"
}
