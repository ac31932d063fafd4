package importapp

import (
	"context"
	"fmt"
	"io"
	"time"

	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/spreadsheet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const columnWidth = 16

// StockMatrixProvider computes the stock of every product per warehouse as of a date
type StockMatrixProvider interface {
	StockMatrix(ctx context.Context, asOf time.Time) (*appinv.StockMatrix, error)
}

// ExportService writes data sets as XLSX workbooks. Product, movement and
// shipment exports use the import column names so they can be re-imported.
type ExportService struct {
	productRepo   catalog.ProductRepository
	warehouseRepo catalog.WarehouseRepository
	movementRepo  inventory.StockMovementRepository
	incomingRepo  inventory.IncomingStockRepository
	orderRepo     inventory.ProductionOrderRepository
	stock         StockMatrixProvider
	logger        *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	productRepo catalog.ProductRepository,
	warehouseRepo catalog.WarehouseRepository,
	movementRepo inventory.StockMovementRepository,
	incomingRepo inventory.IncomingStockRepository,
	orderRepo inventory.ProductionOrderRepository,
	stock StockMatrixProvider,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		movementRepo:  movementRepo,
		incomingRepo:  incomingRepo,
		orderRepo:     orderRepo,
		stock:         stock,
		logger:        logger,
	}
}

// ExportFilename returns the download name of an export taken on day
func ExportFilename(entity Entity, day time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", entity, day.Format("20060102"))
}

// TemplateFilename returns the download name of an import template
func TemplateFilename(entity Entity) string {
	return fmt.Sprintf("%s_template.xlsx", entity)
}

// Export writes entity as an XLSX workbook to w. asOf only applies to the
// historical stock matrix and defaults to today.
func (s *ExportService) Export(ctx context.Context, entity Entity, asOf string, w io.Writer) error {
	wb, err := spreadsheet.NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	switch entity {
	case EntityProducts:
		err = s.exportProducts(ctx, wb)
	case EntityMovements:
		err = s.exportMovements(ctx, wb)
	case EntityIncomingStock:
		err = s.exportIncoming(ctx, wb)
	case EntityProductionOrders:
		err = s.exportOrders(ctx, wb)
	case EntityHistoricalStock:
		err = s.exportHistorical(ctx, wb, asOf)
	default:
		return ErrUnsupportedEntity
	}
	if err != nil {
		return err
	}

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Debug("Export written", zap.String("entity", string(entity)))
	return nil
}

// Template writes an import template with the entity's columns and one sample row
func (s *ExportService) Template(entity Entity, w io.Writer) error {
	if !entity.Importable() {
		return ErrUnsupportedEntity
	}
	wb, err := spreadsheet.NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.AddSheet("Template", Columns(entity), columnWidth); err != nil {
		return err
	}
	if err := wb.AppendRow("Template", templateExamples[entity]...); err != nil {
		return err
	}
	_, err = wb.WriteTo(w)
	return err
}

// lookups loads every product and warehouse for id to SKU/code translation
func (s *ExportService) lookups(ctx context.Context) (map[uuid.UUID]catalog.Product, []catalog.Warehouse, error) {
	products, err := s.productRepo.FindAll(ctx, shared.Filter{OrderBy: "sku", OrderDir: "asc"})
	if err != nil {
		return nil, nil, err
	}
	warehouses, err := s.warehouseRepo.FindAll(ctx, shared.Filter{OrderBy: "code", OrderDir: "asc"})
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, warehouses, nil
}

func warehouseCodes(warehouses []catalog.Warehouse) map[uuid.UUID]string {
	codes := make(map[uuid.UUID]string, len(warehouses))
	for _, w := range warehouses {
		codes[w.ID] = w.Code
	}
	return codes
}

func (s *ExportService) exportProducts(ctx context.Context, wb *spreadsheet.Workbook) error {
	products, err := s.productRepo.FindAll(ctx, shared.Filter{OrderBy: "sku", OrderDir: "asc"})
	if err != nil {
		return err
	}
	warehouses, err := s.warehouseRepo.FindAll(ctx, shared.Filter{OrderBy: "code", OrderDir: "asc"})
	if err != nil {
		return err
	}
	levels, err := s.movementRepo.StockLevels(ctx, nil, nil)
	if err != nil {
		return err
	}
	stock := make(map[uuid.UUID]map[uuid.UUID]int)
	for _, l := range levels {
		if stock[l.ProductID] == nil {
			stock[l.ProductID] = make(map[uuid.UUID]int)
		}
		stock[l.ProductID][l.WarehouseID] = l.Quantity
	}

	headers := Columns(EntityProducts)
	for _, w := range warehouses {
		headers = append(headers, spreadsheet.StockColumnPrefix+w.Code)
	}
	headers = append(headers, "total")
	const sheet = "Products"
	if err := wb.AddSheet(sheet, headers, columnWidth); err != nil {
		return err
	}

	for _, p := range products {
		values := []any{
			p.SKU, p.FNSKU, p.Name,
			p.Dimensions.Weight.InexactFloat64(),
			p.Dimensions.Length.InexactFloat64(),
			p.Dimensions.Width.InexactFloat64(),
			p.Dimensions.Height.InexactFloat64(),
			p.LowStockThreshold,
		}
		total := 0
		for _, w := range warehouses {
			qty := stock[p.ID][w.ID]
			values = append(values, qty)
			total += qty
		}
		values = append(values, total)
		if err := wb.AppendRow(sheet, values...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) exportMovements(ctx context.Context, wb *spreadsheet.Workbook) error {
	products, warehouses, err := s.lookups(ctx)
	if err != nil {
		return err
	}
	codes := warehouseCodes(warehouses)
	movements, err := s.movementRepo.FindAll(ctx, inventory.MovementFilter{})
	if err != nil {
		return err
	}

	const sheet = "Movements"
	if err := wb.AddSheet(sheet, Columns(EntityMovements), columnWidth); err != nil {
		return err
	}
	for _, m := range movements {
		if err := wb.AppendRow(sheet,
			m.Date.Format(shared.DateLayout),
			codes[m.WarehouseID],
			products[m.ProductID].SKU,
			m.Quantity,
			string(m.Type),
			m.Notes,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) exportIncoming(ctx context.Context, wb *spreadsheet.Workbook) error {
	products, warehouses, err := s.lookups(ctx)
	if err != nil {
		return err
	}
	codes := warehouseCodes(warehouses)
	shipments, err := s.incomingRepo.FindAll(ctx, inventory.IncomingFilter{})
	if err != nil {
		return err
	}

	const sheet = "Incoming Stock"
	if err := wb.AddSheet(sheet, append(Columns(EntityIncomingStock), "status"), columnWidth); err != nil {
		return err
	}
	for _, sh := range shipments {
		if err := wb.AppendRow(sheet,
			products[sh.ProductID].SKU,
			codes[sh.WarehouseID],
			sh.Quantity,
			sh.ExpectedArrivalDate.Format(shared.DateLayout),
			sh.Notes,
			string(sh.Status),
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) exportOrders(ctx context.Context, wb *spreadsheet.Workbook) error {
	products, _, err := s.lookups(ctx)
	if err != nil {
		return err
	}
	orders, err := s.orderRepo.FindAll(ctx, inventory.ProductionOrderFilter{})
	if err != nil {
		return err
	}

	const sheet = "Production Orders"
	headers := append(Columns(EntityProductionOrders), "remaining_quantity", "status", "created_at")
	if err := wb.AddSheet(sheet, headers, columnWidth); err != nil {
		return err
	}
	for i := range orders {
		o := &orders[i]
		if err := wb.AppendRow(sheet,
			products[o.ProductID].SKU,
			o.OrderNumber,
			o.Quantity,
			o.RemainingQuantity,
			string(o.Status()),
			o.CreatedAt.Format(shared.DateLayout),
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExportService) exportHistorical(ctx context.Context, wb *spreadsheet.Workbook, asOf string) error {
	date := shared.Today()
	if asOf != "" {
		parsed, err := shared.ParseDate(asOf)
		if err != nil {
			return err
		}
		date = parsed
	}
	matrix, err := s.stock.StockMatrix(ctx, date)
	if err != nil {
		return err
	}

	headers := []string{"sku", "name"}
	for _, w := range matrix.Warehouses {
		headers = append(headers, w.Code)
	}
	headers = append(headers, "total")
	sheet := "Stock " + matrix.AsOf
	if err := wb.AddSheet(sheet, headers, columnWidth); err != nil {
		return err
	}
	for _, row := range matrix.Rows {
		values := []any{row.SKU, row.Name}
		for _, qty := range row.PerWarehouse {
			values = append(values, qty)
		}
		values = append(values, row.Total)
		if err := wb.AppendRow(sheet, values...); err != nil {
			return err
		}
	}
	return nil
}
