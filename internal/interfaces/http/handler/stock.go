package handler

import (
	"net/http"

	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// StockHandler serves stock figures derived from the ledger
type StockHandler struct {
	BaseHandler
	stockService *appinv.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *appinv.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// Get handles GET /stock?product_id=&warehouse_id=&as_of=
// @ID           getStock
// @Summary      Get stock
// @Description  Stock of a product in one warehouse or in all of them, optionally as of a day
// @Tags         stock
// @Produce      json
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        as_of query string false "Day (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[appinv.StockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /stock [get]
func (h *StockHandler) Get(c *gin.Context) {
	productID, ok := h.queryUUID(c, "product_id")
	if !ok {
		return
	}
	if productID == nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "product_id is required")
		return
	}
	warehouseID, ok := h.queryUUID(c, "warehouse_id")
	if !ok {
		return
	}

	stock, err := h.stockService.Query(c.Request.Context(), appinv.StockQuery{
		ProductID:   *productID,
		WarehouseID: warehouseID,
		AsOf:        c.Query("as_of"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// Historical handles GET /stock/historical?date=, the stock of every product
// per warehouse at the end of date (today when omitted)
// @ID           getHistoricalStock
// @Summary      Get historical stock
// @Description  Stock of every product per warehouse at the end of a day
// @Tags         stock
// @Produce      json
// @Param        date query string false "Day (YYYY-MM-DD), today when omitted"
// @Success      200 {object} APIResponse[appinv.StockMatrix]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /stock/historical [get]
func (h *StockHandler) Historical(c *gin.Context) {
	asOf := shared.Today()
	if raw := c.Query("date"); raw != "" {
		date, err := shared.ParseDate(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		asOf = date
	}

	matrix, err := h.stockService.StockMatrix(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, matrix)
}

// Dashboard handles GET /dashboard
// @ID           getDashboard
// @Summary      Get the dashboard
// @Description  Counts, stock per warehouse and low-stock groups
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[appinv.Dashboard]
// @Failure      500 {object} ErrorResponse
// @Router       /dashboard [get]
func (h *StockHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.stockService.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}
