package inventory

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// ProductLocker serializes allocation work per product.
// Lock receives product IDs sorted ascending and without duplicates, and
// must acquire them in that order. The returned release func is always non-nil
// when err is nil. Implementations return shared.ErrLockTimeout when the
// lock cannot be taken before ctx is done or their own timeout elapses.
type ProductLocker interface {
	Lock(ctx context.Context, productIDs ...uuid.UUID) (release func(), err error)
}

// NoOpProductLocker takes no locks. The transaction's row locks still apply.
type NoOpProductLocker struct{}

// Lock returns immediately
func (NoOpProductLocker) Lock(context.Context, ...uuid.UUID) (func(), error) {
	return func() {}, nil
}

// LockOrder returns ids sorted ascending with duplicates and nil ids removed
func LockOrder(ids ...uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}

// lockProducts acquires the product locks for one operation and records the wait
func lockProducts(ctx context.Context, locker ProductLocker, metrics *telemetry.AllocationMetrics, operation string, ids ...uuid.UUID) (func(), error) {
	if locker == nil {
		locker = NoOpProductLocker{}
	}
	start := time.Now()
	release, err := locker.Lock(ctx, LockOrder(ids...)...)
	metrics.RecordLockWait(ctx, operation, time.Since(start))
	if err != nil {
		return nil, err
	}
	return release, nil
}
