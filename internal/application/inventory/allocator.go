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

// Allocator applies allocation deltas to a product's production orders.
// AdjustWithin is the building block used inside coordinator transactions;
// Adjust wraps it with its own lock and transaction for direct reconciliation.
type Allocator struct {
	txScope TransactionScope
	locker  ProductLocker
	engine  *inventory.AllocationEngine
	metrics *telemetry.AllocationMetrics
	logger  *zap.Logger
}

// NewAllocator creates a new Allocator
func NewAllocator(txScope TransactionScope, locker ProductLocker, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		txScope: txScope,
		locker:  locker,
		engine:  inventory.NewAllocationEngine(),
		logger:  logger,
	}
}

// SetMetrics sets the allocation metrics recorder (optional)
func (a *Allocator) SetMetrics(m *telemetry.AllocationMetrics) {
	a.metrics = m
}

// Adjust applies delta to the product's orders under the product lock in a
// transaction of its own.
func (a *Allocator) Adjust(ctx context.Context, productID uuid.UUID, delta int) (*inventory.AllocationResult, error) {
	release, err := lockProducts(ctx, a.locker, a.metrics, "allocation.adjust", productID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *inventory.AllocationResult
	err = a.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Products().FindByID(ctx, productID); err != nil {
			return err
		}
		result, err = a.AdjustWithin(ctx, repos, productID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdjustWithin applies delta using the transaction behind repos. The caller
// must hold the product lock and owns commit and rollback.
func (a *Allocator) AdjustWithin(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID, delta int) (*inventory.AllocationResult, error) {
	direction := inventory.DirectionOf(delta)
	ctx, span := telemetry.StartServiceSpan(ctx, "allocator", "adjust",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID),
		telemetry.WithAttribute(telemetry.SpanAttrDelta, delta),
		telemetry.WithAttribute(telemetry.SpanAttrDirection, string(direction)),
	)
	defer span.End()

	result, err := a.engine.Adjust(ctx, repos.ProductionOrders(), productID, delta)
	if err != nil {
		telemetry.RecordError(span, err)
		a.metrics.RecordFailure(ctx, string(direction))
		a.logger.Error("Allocation walk failed",
			zap.String("product_id", productID.String()),
			zap.Int("delta", delta),
			zap.Error(err))
		return nil, wrapAllocationError(err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTouched, result.Touched,
		telemetry.SpanAttrUnallocated, result.Unallocated,
	)
	if direction != inventory.AllocationNone {
		a.metrics.RecordAdjustment(ctx, string(direction), result.Applied, result.Unallocated, result.Touched)
	}

	if result.HasUnallocated() {
		a.logger.Warn("Allocation excess dropped",
			zap.String("product_id", productID.String()),
			zap.String("direction", string(direction)),
			zap.Int("delta", delta),
			zap.Int("unallocated", result.Unallocated),
			zap.Int("orders_touched", result.Touched))
	} else if direction != inventory.AllocationNone {
		a.logger.Info("Allocation applied",
			zap.String("product_id", productID.String()),
			zap.String("direction", string(direction)),
			zap.Int("delta", delta),
			zap.Int("orders_touched", result.Touched))
	}
	return result, nil
}

func wrapAllocationError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapDomainError("ALLOCATION_FAILED", "Allocation could not be applied", err)
}

// warningsFor returns the soft warnings implied by an allocation result
func warningsFor(result *inventory.AllocationResult) []string {
	if result == nil || result.Direction != inventory.AllocationDeduct {
		return nil
	}
	switch {
	case result.Touched == 0:
		return []string{WarningNoOpenOrders}
	case result.HasUnallocated():
		return []string{WarningExcessDropped}
	}
	return nil
}
