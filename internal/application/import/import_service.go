package importapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	appcatalog "github.com/erp/stockledger/internal/application/catalog"
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/spreadsheet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Import errors raised before any row is processed
var (
	ErrInvalidFile    = shared.NewDomainError("INVALID_FILE", "File could not be read")
	ErrMissingColumns = shared.NewDomainError("MISSING_COLUMNS", "Required columns are missing")
	ErrTooManyRows    = shared.NewDomainError("TOO_MANY_ROWS", "File exceeds the maximum number of rows")
	ErrUnknownColumn  = shared.NewDomainError("UNKNOWN_WAREHOUSE_COLUMN", "Stock column names an unknown warehouse")
)

// ShipmentCreator declares incoming shipments through the coordinator
type ShipmentCreator interface {
	Create(ctx context.Context, req appinv.CreateIncomingStockRequest) (*appinv.IncomingStockOutcome, error)
}

// MovementRecorder appends ledger entries
type MovementRecorder interface {
	Record(ctx context.Context, req appinv.RecordMovementRequest) (*appinv.MovementResponse, error)
}

// OrderCreator creates production orders
type OrderCreator interface {
	Create(ctx context.Context, req appinv.CreateProductionOrderRequest) (*appinv.ProductionOrderResponse, error)
}

// ImportService imports spreadsheet uploads row by row. Each row is applied
// independently; a failed row never undoes earlier rows.
type ImportService struct {
	productRepo   catalog.ProductRepository
	warehouseRepo catalog.WarehouseRepository
	txScope       appinv.TransactionScope
	movements     MovementRecorder
	shipments     ShipmentCreator
	orders        OrderCreator
	cache         appcatalog.SearchCache
	cfg           config.ImporterConfig
	logger        *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	productRepo catalog.ProductRepository,
	warehouseRepo catalog.WarehouseRepository,
	txScope appinv.TransactionScope,
	movements MovementRecorder,
	shipments ShipmentCreator,
	orders OrderCreator,
	cfg config.ImporterConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 10000
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 100
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = spreadsheet.DefaultDateFormat
	}
	return &ImportService{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		txScope:       txScope,
		movements:     movements,
		shipments:     shipments,
		orders:        orders,
		cfg:           cfg,
		logger:        logger,
	}
}

// SetSearchCache sets the product lookup cache to invalidate after product imports (optional)
func (s *ImportService) SetSearchCache(cache appcatalog.SearchCache) {
	s.cache = cache
}

// rowImporter applies one validated row. A returned RowError marks the row
// failed; a plain error aborts the import.
type rowImporter func(ctx context.Context, row *spreadsheet.Row, result *ImportResult) (*spreadsheet.RowError, error)

// Import reads filename's content and applies every row of it to entity
func (s *ImportService) Import(ctx context.Context, entity Entity, filename string, r io.Reader) (*ImportResult, error) {
	if !entity.Importable() {
		return nil, ErrUnsupportedEntity
	}
	format, err := spreadsheet.DetectFormat(filename)
	if err != nil {
		return nil, shared.WrapDomainError(ErrInvalidFile.Code, err.Error(), err)
	}
	table, err := spreadsheet.ReadTable(r, format)
	if err != nil {
		return nil, shared.WrapDomainError(ErrInvalidFile.Code, err.Error(), err)
	}
	if len(table.Rows) > s.cfg.MaxRows {
		return nil, shared.NewDomainError(ErrTooManyRows.Code,
			fmt.Sprintf("File has %d rows, the maximum is %d", len(table.Rows), s.cfg.MaxRows))
	}

	errs := spreadsheet.NewErrorCollection(s.cfg.MaxErrors)
	validator := spreadsheet.NewFieldValidator(Rules(entity, s.cfg.DateFormat), errs)
	if missing := table.MissingHeaders(validator.RequiredColumns()); len(missing) > 0 {
		return nil, shared.NewDomainError(ErrMissingColumns.Code,
			fmt.Sprintf("Required columns are missing: %s", strings.Join(missing, ", ")))
	}

	apply, err := s.importerFor(ctx, entity, table)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Entity:    entity,
		TotalRows: len(table.Rows),
		Errors:    []spreadsheet.RowError{},
		Warnings:  []RowWarning{},
	}
	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !validator.ValidateRow(row) {
			result.Failed++
			continue
		}
		rowErr, err := apply(ctx, row, result)
		if err != nil {
			return nil, err
		}
		if rowErr != nil {
			errs.Add(*rowErr)
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	result.Errors = errs.Errors()
	result.IsTruncated = errs.IsTruncated()
	result.TotalErrors = errs.TotalCount()

	if entity == EntityProducts && result.Succeeded > 0 && s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logger.Info("Import finished",
		zap.String("entity", string(entity)),
		zap.String("file", filename),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *ImportService) importerFor(ctx context.Context, entity Entity, table *spreadsheet.Table) (rowImporter, error) {
	refs := newReferenceCache(s.productRepo, s.warehouseRepo)
	switch entity {
	case EntityProducts:
		stockColumns, err := s.stockColumns(ctx, table, refs)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, row *spreadsheet.Row, _ *ImportResult) (*spreadsheet.RowError, error) {
			return s.importProduct(ctx, row, stockColumns)
		}, nil
	case EntityMovements:
		return func(ctx context.Context, row *spreadsheet.Row, _ *ImportResult) (*spreadsheet.RowError, error) {
			return s.importMovement(ctx, row, refs)
		}, nil
	case EntityIncomingStock:
		return func(ctx context.Context, row *spreadsheet.Row, result *ImportResult) (*spreadsheet.RowError, error) {
			return s.importShipment(ctx, row, refs, result)
		}, nil
	case EntityProductionOrders:
		return func(ctx context.Context, row *spreadsheet.Row, _ *ImportResult) (*spreadsheet.RowError, error) {
			return s.importProductionOrder(ctx, row, refs)
		}, nil
	}
	return nil, ErrUnsupportedEntity
}

// stockColumns resolves every "stock:<CODE>" header to its warehouse
func (s *ImportService) stockColumns(ctx context.Context, table *spreadsheet.Table, refs *referenceCache) (map[string]uuid.UUID, error) {
	columns := make(map[string]uuid.UUID)
	for _, header := range table.HeadersWithPrefix(spreadsheet.StockColumnPrefix) {
		code := strings.TrimPrefix(header, spreadsheet.StockColumnPrefix)
		id, found, err := refs.warehouse(ctx, code)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, shared.NewDomainError(ErrUnknownColumn.Code,
				fmt.Sprintf("Column %q names unknown warehouse %q", header, code))
		}
		columns[header] = id
	}
	return columns, nil
}

// importProduct upserts a product by SKU and seeds stock columns as IN movements dated today
func (s *ImportService) importProduct(ctx context.Context, row *spreadsheet.Row, stockColumns map[string]uuid.UUID) (*spreadsheet.RowError, error) {
	sku := row.Get("sku")
	seeds := make(map[uuid.UUID]int)
	for header, warehouseID := range stockColumns {
		value := row.Get(header)
		if value == "" {
			continue
		}
		qty, err := spreadsheet.ParseInt(value)
		if err != nil || qty < 0 {
			return rowError(row, header, spreadsheet.ErrCodeImportInvalidType, "stock must be a non-negative whole number", value), nil
		}
		if qty > 0 {
			seeds[warehouseID] = qty
		}
	}

	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if product == nil {
		if product, err = catalog.NewProduct(sku, row.Get("name")); err != nil {
			return domainRowError(row, "sku", err), nil
		}
	} else if name := row.Get("name"); name != "" {
		if err := product.Rename(name); err != nil {
			return domainRowError(row, "name", err), nil
		}
	}
	if err := product.SetFNSKU(row.Get("fnsku")); err != nil {
		return domainRowError(row, "fnsku", err), nil
	}
	dims := catalog.Dimensions{
		Weight: decimal.RequireFromString(row.Get("weight")),
		Length: decimal.RequireFromString(row.Get("length")),
		Width:  decimal.RequireFromString(row.Get("width")),
		Height: decimal.RequireFromString(row.Get("height")),
	}
	if err := product.SetDimensions(dims); err != nil {
		return domainRowError(row, "weight", err), nil
	}
	if value := row.Get("low_stock_threshold"); value != "" {
		threshold, _ := spreadsheet.ParseInt(value)
		if err := product.SetLowStockThreshold(threshold); err != nil {
			return domainRowError(row, "low_stock_threshold", err), nil
		}
	}

	today := shared.Today()
	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		if err := repos.Products().Save(ctx, product); err != nil {
			return err
		}
		for warehouseID, qty := range seeds {
			movement, err := inventory.NewStockMovement(product.ID, warehouseID, inventory.MovementTypeIn, qty, today, initialStockNotes)
			if err != nil {
				return err
			}
			if err := repos.Movements().Create(ctx, movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if shared.CodeOf(err) != "" {
			return domainRowError(row, "sku", err), nil
		}
		return nil, err
	}
	return nil, nil
}

func (s *ImportService) importMovement(ctx context.Context, row *spreadsheet.Row, refs *referenceCache) (*spreadsheet.RowError, error) {
	productID, warehouseID, rowErr, err := refs.resolve(ctx, row)
	if rowErr != nil || err != nil {
		return rowErr, err
	}
	date, _ := spreadsheet.ParseDate(row.Get("date"), s.cfg.DateFormat)
	qty, _ := spreadsheet.ParseInt(row.Get("quantity"))

	_, err = s.movements.Record(ctx, appinv.RecordMovementRequest{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        strings.ToUpper(row.Get("type")),
		Quantity:    qty,
		Date:        date.Format(shared.DateLayout),
		Notes:       row.Get("notes"),
	})
	return rowResult(row, "quantity", err)
}

// importShipment declares a shipment through the coordinator, so the row
// allocates against open production orders exactly like a manual entry
func (s *ImportService) importShipment(ctx context.Context, row *spreadsheet.Row, refs *referenceCache, result *ImportResult) (*spreadsheet.RowError, error) {
	productID, warehouseID, rowErr, err := refs.resolve(ctx, row)
	if rowErr != nil || err != nil {
		return rowErr, err
	}
	date, _ := spreadsheet.ParseDate(row.Get("expected_arrival_date"), s.cfg.DateFormat)
	qty, _ := spreadsheet.ParseInt(row.Get("quantity"))

	outcome, err := s.shipments.Create(ctx, appinv.CreateIncomingStockRequest{
		ProductID:           productID,
		WarehouseID:         warehouseID,
		Quantity:            qty,
		ExpectedArrivalDate: date.Format(shared.DateLayout),
		Notes:               row.Get("notes"),
	})
	if err == nil {
		for _, code := range outcome.Warnings {
			result.Warnings = append(result.Warnings, RowWarning{Row: row.LineNumber, Code: code})
		}
	}
	return rowResult(row, "quantity", err)
}

func (s *ImportService) importProductionOrder(ctx context.Context, row *spreadsheet.Row, refs *referenceCache) (*spreadsheet.RowError, error) {
	productID, found, err := refs.product(ctx, row.Get("sku"))
	if err != nil {
		return nil, err
	}
	if !found {
		return referenceError(row, "sku", "product"), nil
	}
	qty, _ := spreadsheet.ParseInt(row.Get("quantity"))

	_, err = s.orders.Create(ctx, appinv.CreateProductionOrderRequest{
		ProductID:   productID,
		OrderNumber: row.Get("order_number"),
		Quantity:    qty,
	})
	if errors.Is(err, appinv.ErrDuplicateOrderNumber) {
		e := spreadsheet.NewRowErrorWithValue(row.LineNumber, "order_number", spreadsheet.ErrCodeImportDuplicateInDB,
			fmt.Sprintf("order number '%s' already exists for this product", row.Get("order_number")), row.Get("order_number"))
		return &e, nil
	}
	return rowResult(row, "order_number", err)
}

// rowResult turns a domain error into a row error and passes other errors through
func rowResult(row *spreadsheet.Row, column string, err error) (*spreadsheet.RowError, error) {
	if err == nil {
		return nil, nil
	}
	if shared.CodeOf(err) != "" {
		return domainRowError(row, column, err), nil
	}
	return nil, err
}

func domainRowError(row *spreadsheet.Row, column string, err error) *spreadsheet.RowError {
	e := spreadsheet.NewRowError(row.LineNumber, column, shared.CodeOf(err), err.Error())
	return &e
}

func rowError(row *spreadsheet.Row, column, code, message, value string) *spreadsheet.RowError {
	e := spreadsheet.NewRowErrorWithValue(row.LineNumber, column, code, message, value)
	return &e
}

func referenceError(row *spreadsheet.Row, column, refType string) *spreadsheet.RowError {
	value := row.Get(column)
	e := spreadsheet.NewRowErrorWithValue(row.LineNumber, column, spreadsheet.ErrCodeImportReferenceNotFound,
		fmt.Sprintf("%s '%s' not found", refType, value), value)
	return &e
}
