package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics component is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// InventoryMetricsProvider supplies the point-in-time values behind the
// inventory gauges. It keeps this package free of domain imports.
type InventoryMetricsProvider interface {
	// PendingIncomingByWarehouse returns PENDING shipment quantity per warehouse
	PendingIncomingByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error)

	// OpenProductionCapacity returns the remaining quantity across all open production orders
	OpenProductionCapacity(ctx context.Context) (int64, error)

	// LowStockProductCount returns how many products sit below their low-stock threshold
	LowStockProductCount(ctx context.Context) (int64, error)
}

// AllocationMetricsConfig holds configuration for allocation metrics.
type AllocationMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 1 minute
	InventoryProvider InventoryMetricsProvider
}

// AllocationMetrics records allocation engine activity and inventory gauges.
type AllocationMetrics struct {
	logger *zap.Logger

	adjustments   *Counter
	applied       *Counter
	unallocated   *Counter
	ordersTouched *Histogram
	lockWait      *Histogram

	pendingIncoming *Gauge
	openCapacity    *Gauge
	lowStock        *Gauge

	provider InventoryMetricsProvider
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAllocationMetrics creates the allocation instruments on the given meter.
func NewAllocationMetrics(cfg AllocationMetricsConfig) (*AllocationMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CollectInterval
	if interval <= 0 {
		interval = time.Minute
	}

	m := &AllocationMetrics{
		logger:   logger,
		provider: cfg.InventoryProvider,
		interval: interval,
		stopCh:   make(chan struct{}),
	}

	var err error
	if m.adjustments, err = NewCounter(cfg.Meter, "stockledger_allocation_adjustments_total",
		"Allocation adjustments by direction and outcome", "{adjustments}"); err != nil {
		return nil, err
	}
	if m.applied, err = NewCounter(cfg.Meter, "stockledger_allocation_quantity_applied_total",
		"Units claimed from or released to production orders", "{units}"); err != nil {
		return nil, err
	}
	if m.unallocated, err = NewCounter(cfg.Meter, "stockledger_allocation_quantity_unallocated_total",
		"Units dropped because no production order could take them", "{units}"); err != nil {
		return nil, err
	}
	if m.ordersTouched, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "stockledger_allocation_orders_touched",
		Description: "Production orders modified by one adjustment",
		Unit:        "{orders}",
		Boundaries:  OrdersTouchedBuckets,
	}); err != nil {
		return nil, err
	}
	if m.lockWait, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "stockledger_allocation_lock_wait_seconds",
		Description: "Time spent waiting for per-product allocation locks",
		Unit:        "s",
		Boundaries:  LockWaitBuckets,
	}); err != nil {
		return nil, err
	}
	if m.pendingIncoming, err = NewGauge(cfg.Meter, "stockledger_incoming_pending_quantity",
		"Quantity of PENDING incoming shipments per warehouse", "{units}"); err != nil {
		return nil, err
	}
	if m.openCapacity, err = NewGauge(cfg.Meter, "stockledger_production_open_capacity",
		"Remaining quantity across open production orders", "{units}"); err != nil {
		return nil, err
	}
	if m.lowStock, err = NewGauge(cfg.Meter, "stockledger_low_stock_products",
		"Products whose stock is below their low-stock threshold", "{products}"); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordAdjustment records one completed allocation walk
func (m *AllocationMetrics) RecordAdjustment(ctx context.Context, direction string, applied, unallocated, touched int) {
	if m == nil {
		return
	}
	dir := AttrDirection.String(direction)
	m.adjustments.Inc(ctx, dir, AttrOutcome.String("ok"))
	m.applied.Add(ctx, int64(applied), dir)
	if unallocated > 0 {
		m.unallocated.Add(ctx, int64(unallocated), dir)
	}
	m.ordersTouched.Record(ctx, float64(touched), dir)
}

// RecordFailure records an allocation walk that rolled back
func (m *AllocationMetrics) RecordFailure(ctx context.Context, direction string) {
	if m == nil {
		return
	}
	m.adjustments.Inc(ctx, AttrDirection.String(direction), AttrOutcome.String("error"))
}

// RecordLockWait records how long an operation waited for its product locks
func (m *AllocationMetrics) RecordLockWait(ctx context.Context, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.RecordDuration(ctx, d, AttrOperation.String(operation))
}

// Start begins periodic gauge collection. It is a no-op without a provider.
func (m *AllocationMetrics) Start(ctx context.Context) {
	if m == nil || m.provider == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.collect(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.collect(ctx)
			}
		}
	}()
}

// Stop halts periodic collection. Safe to call more than once.
func (m *AllocationMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

func (m *AllocationMetrics) collect(ctx context.Context) {
	if pending, err := m.provider.PendingIncomingByWarehouse(ctx); err != nil {
		m.logger.Warn("Failed to collect pending incoming quantity", zap.Error(err))
	} else {
		for warehouseID, qty := range pending {
			m.pendingIncoming.Record(ctx, qty, attribute.String(string(AttrWarehouseID), warehouseID.String()))
		}
	}

	if capacity, err := m.provider.OpenProductionCapacity(ctx); err != nil {
		m.logger.Warn("Failed to collect open production capacity", zap.Error(err))
	} else {
		m.openCapacity.Record(ctx, capacity)
	}

	if count, err := m.provider.LowStockProductCount(ctx); err != nil {
		m.logger.Warn("Failed to collect low stock count", zap.Error(err))
	} else {
		m.lowStock.Record(ctx, count)
	}
}
