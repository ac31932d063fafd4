package inventory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// StockService answers stock questions from the movement ledger. Reads take
// no locks; stock is never stored, only summed.
type StockService struct {
	productRepo   catalog.ProductRepository
	warehouseRepo catalog.WarehouseRepository
	movementRepo  inventory.StockMovementRepository
	incomingRepo  inventory.IncomingStockRepository
	orderRepo     inventory.ProductionOrderRepository
}

// NewStockService creates a new StockService
func NewStockService(
	productRepo catalog.ProductRepository,
	warehouseRepo catalog.WarehouseRepository,
	movementRepo inventory.StockMovementRepository,
	incomingRepo inventory.IncomingStockRepository,
	orderRepo inventory.ProductionOrderRepository,
) *StockService {
	return &StockService{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		movementRepo:  movementRepo,
		incomingRepo:  incomingRepo,
		orderRepo:     orderRepo,
	}
}

// StockOf returns sum(IN) - sum(OUT) for a product, in one warehouse or all
// of them, counting movements dated on or before asOf when given.
func (s *StockService) StockOf(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, asOf *time.Time) (int, error) {
	return s.movementRepo.SumStock(ctx, productID, warehouseID, asOf)
}

// Query answers a StockQuery
func (s *StockService) Query(ctx context.Context, q StockQuery) (*StockResponse, error) {
	response := &StockResponse{ProductID: q.ProductID, WarehouseID: q.WarehouseID}
	var asOf *time.Time
	if q.AsOf != "" {
		date, err := shared.ParseDate(q.AsOf)
		if err != nil {
			return nil, err
		}
		asOf = &date
		response.AsOf = date.Format(shared.DateLayout)
	}

	qty, err := s.StockOf(ctx, q.ProductID, q.WarehouseID, asOf)
	if err != nil {
		return nil, err
	}
	response.Quantity = qty
	return response, nil
}

// StockMatrix returns every product's stock per warehouse as of the end of asOf
func (s *StockService) StockMatrix(ctx context.Context, asOf time.Time) (*StockMatrix, error) {
	asOf = shared.TruncateToDate(asOf)
	products, err := s.productRepo.FindAll(ctx, shared.Filter{OrderBy: "sku", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}
	warehouses, err := s.warehouseRepo.FindAll(ctx, shared.Filter{OrderBy: "code", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}
	levels, err := s.movementRepo.StockLevels(ctx, nil, &asOf)
	if err != nil {
		return nil, err
	}

	column := make(map[uuid.UUID]int, len(warehouses))
	matrix := &StockMatrix{
		AsOf:       asOf.Format(shared.DateLayout),
		Warehouses: make([]WarehouseColumn, len(warehouses)),
		Rows:       make([]StockMatrixRow, len(products)),
	}
	for i, w := range warehouses {
		column[w.ID] = i
		matrix.Warehouses[i] = WarehouseColumn{ID: w.ID, Code: w.Code, Name: w.Name}
	}

	row := make(map[uuid.UUID]int, len(products))
	for i, p := range products {
		row[p.ID] = i
		matrix.Rows[i] = StockMatrixRow{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			PerWarehouse: make([]int, len(warehouses)),
		}
	}
	for _, level := range levels {
		r, ok := row[level.ProductID]
		if !ok {
			continue
		}
		if c, ok := column[level.WarehouseID]; ok {
			matrix.Rows[r].PerWarehouse[c] = level.Quantity
		}
		matrix.Rows[r].Total += level.Quantity
	}
	return matrix, nil
}

// Summaries returns the stock picture of the given products
func (s *StockService) Summaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]StockSummary, error) {
	summaries := make(map[uuid.UUID]StockSummary, len(productIDs))
	if len(productIDs) == 0 {
		return summaries, nil
	}

	levels, err := s.movementRepo.StockLevels(ctx, productIDs, nil)
	if err != nil {
		return nil, err
	}
	pending, err := s.incomingRepo.PendingQuantityByProduct(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	open, err := s.orderRepo.OpenRemainingByProduct(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range productIDs {
		summaries[id] = StockSummary{
			PerWarehouse:    map[uuid.UUID]int{},
			PendingIncoming: pending[id],
			OpenProduction:  open[id],
		}
	}
	for _, level := range levels {
		summary, ok := summaries[level.ProductID]
		if !ok {
			continue
		}
		summary.PerWarehouse[level.WarehouseID] = level.Quantity
		summary.Total += level.Quantity
		summaries[level.ProductID] = summary
	}
	return summaries, nil
}

// Dashboard builds the ledger overview
func (s *StockService) Dashboard(ctx context.Context) (*Dashboard, error) {
	productCount, err := s.productRepo.Count(ctx, shared.Filter{})
	if err != nil {
		return nil, err
	}
	warehouseCount, err := s.warehouseRepo.Count(ctx, shared.Filter{})
	if err != nil {
		return nil, err
	}
	pendingStatus := inventory.IncomingStatusPending
	pendingCount, err := s.incomingRepo.Count(ctx, inventory.IncomingFilter{Status: &pendingStatus})
	if err != nil {
		return nil, err
	}

	warehouses, err := s.warehouseRepo.FindAll(ctx, shared.Filter{OrderBy: "code", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}
	totals, err := s.movementRepo.WarehouseTotals(ctx)
	if err != nil {
		return nil, err
	}
	pendingByWarehouse, err := s.incomingRepo.PendingQuantityByWarehouse(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		ProductCount:         productCount,
		WarehouseCount:       warehouseCount,
		PendingIncomingCount: pendingCount,
		Warehouses:           make([]WarehouseStock, len(warehouses)),
	}
	for i, w := range warehouses {
		dashboard.Warehouses[i] = WarehouseStock{
			WarehouseID:     w.ID,
			Code:            w.Code,
			Name:            w.Name,
			TotalStock:      totals[w.ID],
			PendingIncoming: pendingByWarehouse[w.ID],
		}
	}

	dashboard.LowStock, err = s.lowStock(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard, nil
}

// lowStock groups products by name label. A group's threshold is that of its
// first product in SKU order; groups whose combined stock is below a positive
// threshold are returned, lowest stock first.
func (s *StockService) lowStock(ctx context.Context) ([]LowStockGroup, error) {
	products, err := s.productRepo.FindAll(ctx, shared.Filter{OrderBy: "sku", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}
	levels, err := s.movementRepo.StockLevels(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return LowStockGroups(products, levels), nil
}

// LowStockGroups computes the low-stock list from products sorted by SKU and
// their stock levels.
func LowStockGroups(products []catalog.Product, levels []inventory.StockLevel) []LowStockGroup {
	stock := make(map[uuid.UUID]int, len(products))
	for _, level := range levels {
		stock[level.ProductID] += level.Quantity
	}

	groups := make(map[string]*LowStockGroup)
	order := make([]string, 0)
	for _, p := range products {
		g, ok := groups[p.Name]
		if !ok {
			g = &LowStockGroup{Name: p.Name, SKUs: []string{}, Threshold: p.LowStockThreshold}
			groups[p.Name] = g
			order = append(order, p.Name)
		}
		g.SKUs = append(g.SKUs, p.SKU)
		g.Stock += stock[p.ID]
	}

	low := make([]LowStockGroup, 0)
	for _, name := range order {
		g := groups[name]
		if g.Threshold > 0 && g.Stock < g.Threshold {
			low = append(low, *g)
		}
	}
	slices.SortStableFunc(low, func(a, b LowStockGroup) int {
		return cmp.Compare(a.Stock, b.Stock)
	})
	return low
}
