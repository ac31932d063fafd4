package inventory_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ledger wires the inventory services onto an in-memory sqlite database
type ledger struct {
	db         *gorm.DB
	products   *persistence.GormProductRepository
	warehouses *persistence.GormWarehouseRepository
	movements  *persistence.GormStockMovementRepository
	incoming   *persistence.GormIncomingStockRepository
	orders     *persistence.GormProductionOrderRepository
	scope      appinv.TransactionScope
	allocator  *appinv.Allocator
	shipments  *appinv.IncomingStockService
	stock      *appinv.StockService
	movementSv *appinv.MovementService
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = database.Close() })

	l := &ledger{
		db:         database.DB,
		products:   persistence.NewGormProductRepository(database.DB),
		warehouses: persistence.NewGormWarehouseRepository(database.DB),
		movements:  persistence.NewGormStockMovementRepository(database.DB),
		incoming:   persistence.NewGormIncomingStockRepository(database.DB),
		orders:     persistence.NewGormProductionOrderRepository(database.DB),
		scope:      persistence.NewGormTransactionScope(database.DB),
	}
	l.allocator = appinv.NewAllocator(l.scope, appinv.NoOpProductLocker{}, nil)
	l.shipments = appinv.NewIncomingStockService(l.incoming, l.scope, appinv.NoOpProductLocker{}, l.allocator, nil)
	l.stock = appinv.NewStockService(l.products, l.warehouses, l.movements, l.incoming, l.orders)
	l.movementSv = appinv.NewMovementService(l.movements, l.scope, nil)
	return l
}

func (l *ledger) product(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, sku)
	require.NoError(t, err)
	require.NoError(t, l.products.Save(context.Background(), p))
	return p
}

func (l *ledger) warehouse(t *testing.T, code string) *catalog.Warehouse {
	t.Helper()
	w, err := catalog.NewWarehouse(code, code, "")
	require.NoError(t, err)
	require.NoError(t, l.warehouses.Save(context.Background(), w))
	return w
}

// order stores a production order created at the given time
func (l *ledger) order(t *testing.T, productID uuid.UUID, number string, quantity, remaining int, created time.Time) *inventory.ProductionOrder {
	t.Helper()
	o, err := inventory.NewProductionOrder(productID, number, quantity)
	require.NoError(t, err)
	o.RemainingQuantity = remaining
	o.CreatedAt = created
	require.NoError(t, l.orders.Save(context.Background(), o))
	return o
}

func (l *ledger) remaining(t *testing.T, id uuid.UUID) int {
	t.Helper()
	o, err := l.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return o.RemainingQuantity
}

func (l *ledger) movementCount(t *testing.T) int64 {
	t.Helper()
	n, err := l.movements.Count(context.Background(), inventory.MovementFilter{})
	require.NoError(t, err)
	return n
}

var epoch = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func TestLedger_StockIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	type entry struct {
		kind string
		qty  int
		day  int
	}
	entries := []entry{
		{"IN", 10, 1}, {"OUT", 3, 2}, {"IN", 7, 3}, {"OUT", 12, 4}, {"IN", 1, 5}, {"OUT", 2, 5},
	}
	want := 10 - 3 + 7 - 12 + 1 - 2

	for seed := int64(1); seed <= 3; seed++ {
		l := newLedger(t)
		p := l.product(t, "SKU-1")
		w := l.warehouse(t, "MAIN")
		other := l.warehouse(t, "OTHER")

		shuffled := append([]entry(nil), entries...)
		rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, e := range shuffled {
			_, err := l.movementSv.Record(ctx, appinv.RecordMovementRequest{
				ProductID:   p.ID,
				WarehouseID: w.ID,
				Type:        e.kind,
				Quantity:    e.qty,
				Date:        epoch.AddDate(0, 0, e.day).Format(shared.DateLayout),
			})
			require.NoError(t, err)
		}
		_, err := l.movementSv.Record(ctx, appinv.RecordMovementRequest{
			ProductID: p.ID, WarehouseID: other.ID, Type: "IN", Quantity: 100,
		})
		require.NoError(t, err)

		got, err := l.stock.StockOf(ctx, p.ID, &w.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		again, err := l.stock.StockOf(ctx, p.ID, &w.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, got, again)

		total, err := l.stock.StockOf(ctx, p.ID, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, want+100, total)

		asOf := shared.TruncateToDate(epoch.AddDate(0, 0, 2))
		early, err := l.stock.StockOf(ctx, p.ID, &w.ID, &asOf)
		require.NoError(t, err)
		assert.Equal(t, 7, early)
	}
}

func TestLedger_DeductsOldestFirst(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	o1 := l.order(t, p.ID, "PO-1", 5, 5, epoch)
	o2 := l.order(t, p.ID, "PO-2", 10, 10, epoch.Add(time.Minute))

	result, err := l.allocator.Adjust(ctx, p.ID, 8)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Touched)
	assert.Equal(t, 0, l.remaining(t, o1.ID))
	assert.Equal(t, 7, l.remaining(t, o2.ID))
}

func TestLedger_RestoresNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	o1 := l.order(t, p.ID, "PO-1", 10, 2, epoch)
	o2 := l.order(t, p.ID, "PO-2", 10, 10, epoch.Add(time.Minute))

	result, err := l.allocator.Adjust(ctx, p.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Touched)
	assert.Equal(t, 7, l.remaining(t, o1.ID))
	assert.Equal(t, 10, l.remaining(t, o2.ID))

	o3 := l.order(t, p.ID, "PO-3", 10, 6, epoch.Add(2*time.Minute))
	result, err = l.allocator.Adjust(ctx, p.ID, -6)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Touched)
	assert.Equal(t, 10, l.remaining(t, o3.ID))
	assert.Equal(t, 9, l.remaining(t, o1.ID))
}

func TestLedger_RemainingStaysInBounds(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	orders := []*inventory.ProductionOrder{
		l.order(t, p.ID, "PO-1", 7, 7, epoch),
		l.order(t, p.ID, "PO-2", 3, 3, epoch.Add(time.Minute)),
		l.order(t, p.ID, "PO-3", 12, 12, epoch.Add(2*time.Minute)),
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 60; i++ {
		delta := rng.Intn(41) - 20
		_, err := l.allocator.Adjust(ctx, p.ID, delta)
		require.NoError(t, err)
		for _, o := range orders {
			rem := l.remaining(t, o.ID)
			assert.GreaterOrEqual(t, rem, 0)
			assert.LessOrEqual(t, rem, o.Quantity)
		}
	}
}

func TestLedger_ExcessDeductionWithoutOrders(t *testing.T) {
	l := newLedger(t)
	p := l.product(t, "SKU-1")

	result, err := l.allocator.Adjust(context.Background(), p.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Touched)
	assert.Equal(t, 100, result.Unallocated)
}

func TestLedger_CreateThenDeletePending(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	w := l.warehouse(t, "MAIN")
	o := l.order(t, p.ID, "PO-1", 8, 8, epoch)

	outcome, err := l.shipments.Create(ctx, appinv.CreateIncomingStockRequest{
		ProductID:           p.ID,
		WarehouseID:         w.ID,
		Quantity:            8,
		ExpectedArrivalDate: "2026-12-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, l.remaining(t, o.ID))

	_, err = l.shipments.Delete(ctx, outcome.Shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, l.remaining(t, o.ID))

	_, err = l.incoming.FindByID(ctx, outcome.Shipment.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestLedger_ApproveLeavesOrdersAlone(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	w := l.warehouse(t, "MAIN")
	o := l.order(t, p.ID, "PO-1", 20, 20, epoch)

	outcome, err := l.shipments.Create(ctx, appinv.CreateIncomingStockRequest{
		ProductID:           p.ID,
		WarehouseID:         w.ID,
		Quantity:            6,
		ExpectedArrivalDate: "2026-12-01",
		Notes:               "container 7",
	})
	require.NoError(t, err)
	require.Equal(t, 14, l.remaining(t, o.ID))
	before := l.movementCount(t)

	approved, err := l.shipments.Approve(ctx, outcome.Shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, l.remaining(t, o.ID))
	assert.Equal(t, before+1, l.movementCount(t))
	require.NotNil(t, approved.Movement)
	assert.Equal(t, "IN", approved.Movement.Type)
	assert.Equal(t, 6, approved.Movement.Quantity)
	assert.Contains(t, approved.Movement.Notes, "container 7")

	stock, err := l.stock.StockOf(ctx, p.ID, &w.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, stock)

	again, err := l.shipments.Approve(ctx, outcome.Shipment.ID)
	require.NoError(t, err)
	assert.True(t, again.HasWarning(appinv.WarningAlreadyArrived))
	assert.Equal(t, before+1, l.movementCount(t))

	_, err = l.shipments.Delete(ctx, outcome.Shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, l.remaining(t, o.ID))
}

func TestLedger_EditReconcilesClaims(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	q := l.product(t, "SKU-2")
	w := l.warehouse(t, "MAIN")
	op := l.order(t, p.ID, "PO-P", 20, 20, epoch)
	oq := l.order(t, q.ID, "PO-Q", 20, 20, epoch)

	outcome, err := l.shipments.Create(ctx, appinv.CreateIncomingStockRequest{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 5, ExpectedArrivalDate: "2026-12-01",
	})
	require.NoError(t, err)
	id := outcome.Shipment.ID

	edit := func(productID uuid.UUID, qty int, status string) {
		t.Helper()
		_, err := l.shipments.Update(ctx, id, appinv.UpdateIncomingStockRequest{
			ProductID:           productID,
			WarehouseID:         w.ID,
			Quantity:            qty,
			ExpectedArrivalDate: "2026-12-01",
			Status:              status,
		})
		require.NoError(t, err)
	}

	edit(p.ID, 9, "PENDING")
	assert.Equal(t, 11, l.remaining(t, op.ID))

	edit(p.ID, 2, "PENDING")
	assert.Equal(t, 18, l.remaining(t, op.ID))

	edit(q.ID, 4, "PENDING")
	assert.Equal(t, 20, l.remaining(t, op.ID))
	assert.Equal(t, 16, l.remaining(t, oq.ID))

	edit(q.ID, 4, "ARRIVED")
	assert.Equal(t, 20, l.remaining(t, oq.ID))

	_, err = l.shipments.Update(ctx, id, appinv.UpdateIncomingStockRequest{
		ProductID: q.ID, WarehouseID: w.ID, Quantity: 4, ExpectedArrivalDate: "2026-12-01", Status: "PENDING",
	})
	assert.Equal(t, "INVALID_STATE_TRANSITION", shared.CodeOf(err))
	assert.Equal(t, 20, l.remaining(t, oq.ID))
}

func TestLedger_BatchApprove(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	w := l.warehouse(t, "MAIN")

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		outcome, err := l.shipments.Create(ctx, appinv.CreateIncomingStockRequest{
			ProductID: p.ID, WarehouseID: w.ID, Quantity: i + 1, ExpectedArrivalDate: "2026-12-01",
		})
		require.NoError(t, err)
		assert.True(t, outcome.HasWarning(appinv.WarningNoOpenOrders))
		ids = append(ids, outcome.Shipment.ID)
	}
	_, err := l.shipments.Approve(ctx, ids[0])
	require.NoError(t, err)

	result := l.shipments.BatchApprove(ctx, append(ids, uuid.New()))
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)

	stock, err := l.stock.StockOf(ctx, p.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, stock)
}

// failingOrders fails the nth Save of a walk
type failingOrders struct {
	inventory.ProductionOrderRepository
	saves  int
	failAt int
}

func (f *failingOrders) Save(ctx context.Context, o *inventory.ProductionOrder) error {
	f.saves++
	if f.saves == f.failAt {
		return errors.New("connection lost")
	}
	return f.ProductionOrderRepository.Save(ctx, o)
}

type failingRepos struct {
	appinv.TransactionalRepositories
	orders *failingOrders
}

func (r failingRepos) ProductionOrders() inventory.ProductionOrderRepository {
	r.orders.ProductionOrderRepository = r.TransactionalRepositories.ProductionOrders()
	return r.orders
}

type failingScope struct {
	inner  appinv.TransactionScope
	orders *failingOrders
}

func (s failingScope) Execute(ctx context.Context, fn func(appinv.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		return fn(failingRepos{TransactionalRepositories: repos, orders: s.orders})
	})
}

func TestLedger_FailedWalkRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	p := l.product(t, "SKU-1")
	w := l.warehouse(t, "MAIN")
	o1 := l.order(t, p.ID, "PO-1", 5, 5, epoch)
	o2 := l.order(t, p.ID, "PO-2", 5, 5, epoch.Add(time.Minute))

	scope := failingScope{inner: l.scope, orders: &failingOrders{failAt: 2}}
	allocator := appinv.NewAllocator(scope, nil, nil)
	shipments := appinv.NewIncomingStockService(l.incoming, scope, nil, allocator, nil)

	_, err := shipments.Create(ctx, appinv.CreateIncomingStockRequest{
		ProductID: p.ID, WarehouseID: w.ID, Quantity: 8, ExpectedArrivalDate: "2026-12-01",
	})
	require.Error(t, err)
	assert.Equal(t, "ALLOCATION_FAILED", shared.CodeOf(err))

	assert.Equal(t, 5, l.remaining(t, o1.ID))
	assert.Equal(t, 5, l.remaining(t, o2.ID))
	n, err := l.incoming.Count(ctx, inventory.IncomingFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
