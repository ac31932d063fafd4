package cache

import (
	"context"
	"sync"
	"time"

	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// productSlot is a one-token semaphore for a single product
type productSlot struct {
	token   chan struct{}
	waiters int
}

// LocalProductLocker serializes allocation per product inside one process.
// It is suitable for single-instance deployments and testing.
type LocalProductLocker struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]*productSlot
	timeout time.Duration
}

// NewLocalProductLocker creates a locker that waits at most timeout for each
// set of product locks. A zero timeout waits until ctx is done.
func NewLocalProductLocker(timeout time.Duration) *LocalProductLocker {
	return &LocalProductLocker{
		slots:   make(map[uuid.UUID]*productSlot),
		timeout: timeout,
	}
}

// Lock acquires the product locks in the given order
func (l *LocalProductLocker) Lock(ctx context.Context, productIDs ...uuid.UUID) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	held := make([]uuid.UUID, 0, len(productIDs))
	for _, id := range productIDs {
		slot := l.acquireSlot(id)
		select {
		case slot.token <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.releaseSlot(id, false)
			l.unlock(held)
			return nil, shared.ErrLockTimeout
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlock(held) })
	}, nil
}

// Size returns the number of products with a holder or a waiter (for testing)
func (l *LocalProductLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *LocalProductLocker) acquireSlot(id uuid.UUID) *productSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[id]
	if !ok {
		slot = &productSlot{token: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.waiters++
	return slot
}

func (l *LocalProductLocker) releaseSlot(id uuid.UUID, holding bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot := l.slots[id]
	if holding {
		<-slot.token
	}
	slot.waiters--
	if slot.waiters == 0 {
		delete(l.slots, id)
	}
}

// unlock releases held locks in reverse acquisition order
func (l *LocalProductLocker) unlock(held []uuid.UUID) {
	for i := len(held) - 1; i >= 0; i-- {
		l.releaseSlot(held[i], true)
	}
}

var _ appinv.ProductLocker = (*LocalProductLocker)(nil)
