package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	catalogapp "github.com/erp/stockledger/internal/application/catalog"
	importapp "github.com/erp/stockledger/internal/application/import"
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/infrastructure/spreadsheet"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 1 << 20

// testAPI serves every handler over an in-memory sqlite ledger
type testAPI struct {
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = database.Close() })

	products := persistence.NewGormProductRepository(database.DB)
	warehouses := persistence.NewGormWarehouseRepository(database.DB)
	movements := persistence.NewGormStockMovementRepository(database.DB)
	incoming := persistence.NewGormIncomingStockRepository(database.DB)
	orders := persistence.NewGormProductionOrderRepository(database.DB)
	scope := persistence.NewGormTransactionScope(database.DB)
	locker := appinv.NoOpProductLocker{}

	allocator := appinv.NewAllocator(scope, locker, nil)
	stockSvc := appinv.NewStockService(products, warehouses, movements, incoming, orders)
	incomingSvc := appinv.NewIncomingStockService(incoming, scope, locker, allocator, nil)
	movementSvc := appinv.NewMovementService(movements, scope, nil)
	orderSvc := appinv.NewProductionOrderService(orders, scope, locker, nil)
	productSvc := catalogapp.NewProductService(products, movements, incoming, orders, stockSvc, nil)
	warehouseSvc := catalogapp.NewWarehouseService(warehouses, movements, incoming, scope, nil)
	importSvc := importapp.NewImportService(products, warehouses, scope, movementSvc, incomingSvc, orderSvc, config.ImporterConfig{}, nil)
	exportSvc := importapp.NewExportService(products, warehouses, movements, incoming, orders, stockSvc, nil)

	wh := NewWarehouseHandler(warehouseSvc)
	ph := NewProductHandler(productSvc)
	mh := NewMovementHandler(movementSvc)
	sh := NewStockHandler(stockSvc)
	ih := NewIncomingStockHandler(incomingSvc)
	oh := NewProductionOrderHandler(orderSvc, allocator)
	xh := NewSpreadsheetHandler(importSvc, exportSvc, testMaxUpload)
	sys := NewSystemHandler("stockledger", "test", database, nil)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", sys.Health)
	api := engine.Group("/api/v1")
	api.GET("/warehouses", wh.List)
	api.POST("/warehouses", wh.Create)
	api.POST("/warehouses/batch-delete", wh.BatchDelete)
	api.GET("/warehouses/:id", wh.GetByID)
	api.PUT("/warehouses/:id", wh.Update)
	api.DELETE("/warehouses/:id", wh.Delete)
	api.POST("/warehouses/:id/merge", wh.Merge)
	api.GET("/products", ph.List)
	api.POST("/products", ph.Create)
	api.GET("/products/search", ph.Search)
	api.POST("/products/batch-delete", ph.BatchDelete)
	api.GET("/products/:id", ph.GetByID)
	api.PUT("/products/:id", ph.Update)
	api.DELETE("/products/:id", ph.Delete)
	api.GET("/movements", mh.List)
	api.POST("/movements", mh.Record)
	api.DELETE("/movements/:id", mh.Delete)
	api.GET("/stock", sh.Get)
	api.GET("/stock/historical", sh.Historical)
	api.GET("/dashboard", sh.Dashboard)
	api.GET("/incoming-stock", ih.List)
	api.POST("/incoming-stock", ih.Create)
	api.POST("/incoming-stock/batch-approve", ih.BatchApprove)
	api.GET("/incoming-stock/:id", ih.GetByID)
	api.PUT("/incoming-stock/:id", ih.Update)
	api.DELETE("/incoming-stock/:id", ih.Delete)
	api.POST("/incoming-stock/:id/approve", ih.Approve)
	api.GET("/production-orders", oh.List)
	api.POST("/production-orders", oh.Create)
	api.POST("/production-orders/adjust", oh.Adjust)
	api.GET("/production-orders/:id", oh.GetByID)
	api.POST("/import/:entity", xh.Import)
	api.GET("/import/:entity/template", xh.Template)
	api.GET("/export/:entity", xh.Export)

	return &testAPI{engine: engine}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) APIResponse[T] {
	t.Helper()
	var env APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (a *testAPI) warehouse(t *testing.T, code string) catalogapp.WarehouseResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/warehouses", map[string]any{"code": code, "name": "Warehouse " + code})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[catalogapp.WarehouseResponse](t, w).Data
}

func (a *testAPI) product(t *testing.T, sku string) catalogapp.ProductResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/products", map[string]any{"sku": sku, "name": "Widget"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[catalogapp.ProductResponse](t, w).Data
}

func (a *testAPI) order(t *testing.T, productID uuid.UUID, number string, quantity int) appinv.ProductionOrderResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/production-orders", map[string]any{
		"product_id": productID, "order_number": number, "quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[appinv.ProductionOrderResponse](t, w).Data
}

func (a *testAPI) openProduction(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	w := a.do(t, http.MethodGet, "/api/v1/production-orders?product_id="+productID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	total := 0
	for _, o := range decode[[]appinv.ProductionOrderResponse](t, w).Data {
		total += o.RemainingQuantity
	}
	return total
}

func (a *testAPI) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	w := a.do(t, http.MethodGet, "/api/v1/stock?product_id="+productID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[appinv.StockResponse](t, w).Data.Quantity
}

func TestAPI_ShipmentLifecycle(t *testing.T) {
	api := newTestAPI(t)
	wh := api.warehouse(t, "GA")
	p := api.product(t, "SKU-1")
	api.order(t, p.ID, "PO-1", 10)
	api.order(t, p.ID, "PO-2", 10)

	w := api.do(t, http.MethodPost, "/api/v1/incoming-stock", map[string]any{
		"product_id":            p.ID,
		"warehouse_id":          wh.ID,
		"quantity":              15,
		"expected_arrival_date": "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[appinv.IncomingStockOutcome](t, w).Data
	require.NotNil(t, created.Shipment)
	assert.Equal(t, "PENDING", created.Shipment.Status)
	assert.Equal(t, 5, api.openProduction(t, p.ID))
	assert.Zero(t, api.stock(t, p.ID))

	shipmentPath := "/api/v1/incoming-stock/" + created.Shipment.ID.String()
	w = api.do(t, http.MethodPost, shipmentPath+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := decode[appinv.IncomingStockOutcome](t, w).Data
	require.NotNil(t, approved.Movement)
	assert.Equal(t, "IN", approved.Movement.Type)
	assert.Equal(t, 15, approved.Movement.Quantity)
	assert.Equal(t, 15, api.stock(t, p.ID))
	assert.Equal(t, 5, api.openProduction(t, p.ID))

	w = api.do(t, http.MethodPost, shipmentPath+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[appinv.IncomingStockOutcome](t, w).Data.Warnings, appinv.WarningAlreadyArrived)
	assert.Equal(t, 15, api.stock(t, p.ID))

	w = api.do(t, http.MethodGet, shipmentPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ARRIVED", decode[appinv.IncomingStockResponse](t, w).Data.Status)
}

func TestAPI_DeletePendingShipmentRestoresOrders(t *testing.T) {
	api := newTestAPI(t)
	wh := api.warehouse(t, "GA")
	p := api.product(t, "SKU-1")
	api.order(t, p.ID, "PO-1", 10)

	w := api.do(t, http.MethodPost, "/api/v1/incoming-stock", map[string]any{
		"product_id": p.ID, "warehouse_id": wh.ID, "quantity": 4, "expected_arrival_date": "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[appinv.IncomingStockOutcome](t, w).Data.Shipment.ID
	assert.Equal(t, 6, api.openProduction(t, p.ID))

	w = api.do(t, http.MethodDelete, "/api/v1/incoming-stock/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 10, api.openProduction(t, p.ID))

	w = api.do(t, http.MethodGet, "/api/v1/incoming-stock/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, w).Error.Code)
}

func TestAPI_BatchApprove(t *testing.T) {
	api := newTestAPI(t)
	wh := api.warehouse(t, "GA")
	p := api.product(t, "SKU-1")

	ids := make([]uuid.UUID, 0, 2)
	for i := 0; i < 2; i++ {
		w := api.do(t, http.MethodPost, "/api/v1/incoming-stock", map[string]any{
			"product_id": p.ID, "warehouse_id": wh.ID, "quantity": 3, "expected_arrival_date": "2026-03-01",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode[appinv.IncomingStockOutcome](t, w).Data.Shipment.ID)
	}
	ids = append(ids, uuid.New())

	w := api.do(t, http.MethodPost, "/api/v1/incoming-stock/batch-approve", map[string]any{"ids": ids})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[appinv.BatchResult](t, w).Data
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 6, api.stock(t, p.ID))

	w = api.do(t, http.MethodPost, "/api/v1/incoming-stock/batch-approve", map[string]any{"ids": []uuid.UUID{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_RequestValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/incoming-stock", map[string]any{
		"product_id": uuid.New(), "warehouse_id": uuid.New(), "quantity": -2, "expected_arrival_date": "2026-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode[any](t, w).Error.Code)

	w = api.do(t, http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidID, decode[any](t, w).Error.Code)

	w = api.do(t, http.MethodGet, "/api/v1/stock", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/stock/historical?date=01.03.2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DATE", decode[any](t, w).Error.Code)
}

func TestAPI_ProductsAndWarehouses(t *testing.T) {
	api := newTestAPI(t)
	ga := api.warehouse(t, "GA")
	gb := api.warehouse(t, "GB")
	p := api.product(t, "ABC-100")
	api.product(t, "XYZ-200")

	w := api.do(t, http.MethodPost, "/api/v1/products", map[string]any{"sku": "ABC-100"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_SKU", decode[any](t, w).Error.Code)

	w = api.do(t, http.MethodGet, "/api/v1/products/search?q=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]catalogapp.ProductLookup](t, w).Data
	require.Len(t, found, 1)
	assert.Equal(t, "ABC-100", found[0].SKU)

	w = api.do(t, http.MethodPost, "/api/v1/movements", map[string]any{
		"product_id": p.ID, "warehouse_id": gb.ID, "type": "IN", "quantity": 7, "date": "2026-01-10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/products?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[[]catalogapp.ProductListItem](t, w)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(2), list.Meta.Total)

	w = api.do(t, http.MethodDelete, "/api/v1/products/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PRODUCT_IN_USE", decode[any](t, w).Error.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/warehouses/"+gb.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/warehouses/"+gb.ID.String()+"/merge", map[string]any{"target_id": ga.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	merged := decode[catalogapp.MergeResult](t, w).Data
	assert.Equal(t, int64(1), merged.MovementsMoved)

	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/stock?product_id=%s&warehouse_id=%s", p.ID, ga.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 7, decode[appinv.StockResponse](t, w).Data.Quantity)

	w = api.do(t, http.MethodGet, "/api/v1/warehouses/"+gb.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_AdjustAndDashboard(t *testing.T) {
	api := newTestAPI(t)
	api.warehouse(t, "GA")
	p := api.product(t, "SKU-1")
	api.order(t, p.ID, "PO-1", 10)

	w := api.do(t, http.MethodPost, "/api/v1/production-orders/adjust", map[string]any{"product_id": p.ID, "delta": -4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 6, api.openProduction(t, p.ID))

	w = api.do(t, http.MethodPost, "/api/v1/production-orders/adjust", map[string]any{"product_id": p.ID, "delta": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 10, api.openProduction(t, p.ID))

	w = api.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dashboard := decode[appinv.Dashboard](t, w).Data
	assert.Equal(t, int64(1), dashboard.ProductCount)
	assert.Equal(t, int64(1), dashboard.WarehouseCount)

	w = api.do(t, http.MethodGet, "/api/v1/stock/historical?date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	matrix := decode[appinv.StockMatrix](t, w).Data
	assert.Equal(t, "2026-01-31", matrix.AsOf)
	assert.Len(t, matrix.Warehouses, 1)
}

func multipartUpload(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAPI_ImportAndExport(t *testing.T) {
	api := newTestAPI(t)

	req := multipartUpload(t, "/api/v1/import/products", "products.csv",
		"sku,fnsku,name,weight,length,width,height,low_stock_threshold\n"+
			"SKU-1,X001,Widget,1.5,10,8,4,5\n"+
			"SKU-2,X002,Gadget,-1,10,8,4,5\n")
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[importapp.ImportResult](t, w).Data
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	w = api.do(t, http.MethodGet, "/api/v1/export/products", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, spreadsheet.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="products_`)
	assert.NotZero(t, w.Body.Len())

	w = api.do(t, http.MethodGet, "/api/v1/import/movements/template", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="movements_template.xlsx"`, w.Header().Get("Content-Disposition"))
}

func TestAPI_SpreadsheetErrors(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/export/customers", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNSUPPORTED_ENTITY", decode[any](t, w).Error.Code)

	w = api.do(t, http.MethodGet, "/api/v1/import/historical-stock/template", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, multipartUpload(t, "/api/v1/import/historical-stock", "stock.csv", "sku\nA\n"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/import/products", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, multipartUpload(t, "/api/v1/import/products", "products.csv", "sku,name\nSKU-1,Widget\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_COLUMNS", decode[any](t, w).Error.Code)

	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, multipartUpload(t, "/api/v1/import/products", "products.csv", strings.Repeat("x", testMaxUpload+1)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error {
	return errors.New("connection refused")
}

func TestSystemHandler_Health(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, w).Data.Status)

	router := gin.New()
	router.GET("/health", NewSystemHandler("stockledger", "test", failingPinger{}, nil).Health)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeUnavailable, decode[any](t, w).Error.Code)
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("stockledger", "1.2.0", nil, nil)
	c, w := newTestContext()

	h.GetSystemInfo(c)

	require.Equal(t, http.StatusOK, w.Code)
	info := decode[SystemInfoResponse](t, w).Data
	assert.Equal(t, "stockledger", info.Name)
	assert.Equal(t, "1.2.0", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
