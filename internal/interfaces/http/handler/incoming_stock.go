package handler

import (
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// IncomingStockHandler handles in-transit shipments. Every write returns the
// outcome of the coordinator: the shipment, the ledger entry written on
// arrival, the allocations applied to production orders and any warnings.
type IncomingStockHandler struct {
	BaseHandler
	incomingService *appinv.IncomingStockService
}

// NewIncomingStockHandler creates a new IncomingStockHandler
func NewIncomingStockHandler(incomingService *appinv.IncomingStockService) *IncomingStockHandler {
	return &IncomingStockHandler{incomingService: incomingService}
}

// Create handles POST /incoming-stock
// @ID           createIncomingStock
// @Summary      Create an incoming shipment
// @Description  Create a shipment. An ARRIVED shipment records an IN movement and deducts production.
// @Tags         incoming-stock
// @Accept       json
// @Produce      json
// @Param        request body appinv.CreateIncomingStockRequest true "Shipment creation request"
// @Success      201 {object} APIResponse[appinv.IncomingStockOutcome]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock [post]
func (h *IncomingStockHandler) Create(c *gin.Context) {
	var req appinv.CreateIncomingStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	outcome, err := h.incomingService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, outcome)
}

// GetByID handles GET /incoming-stock/:id
// @ID           getIncomingStockById
// @Summary      Get an incoming shipment
// @Description  Retrieve a shipment by its ID
// @Tags         incoming-stock
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} APIResponse[appinv.IncomingStockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock/{id} [get]
func (h *IncomingStockHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	shipment, err := h.incomingService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shipment)
}

// List handles GET /incoming-stock
// @ID           listIncomingStock
// @Summary      List incoming shipments
// @Description  List shipments filtered by product, warehouse and status
// @Tags         incoming-stock
// @Produce      json
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        status query string false "Shipment status" Enums(PENDING, ARRIVED)
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appinv.IncomingStockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock [get]
func (h *IncomingStockHandler) List(c *gin.Context) {
	var filter appinv.IncomingStockListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	var ok bool
	if filter.ProductID, ok = h.queryUUID(c, "product_id"); !ok {
		return
	}
	if filter.WarehouseID, ok = h.queryUUID(c, "warehouse_id"); !ok {
		return
	}

	shipments, total, err := h.incomingService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, shipments, total, filter.Page, filter.PageSize)
}

// Update handles PUT /incoming-stock/:id
// @ID           updateIncomingStock
// @Summary      Update an incoming shipment
// @Description  Update a shipment and reconcile its movement and production claim
// @Tags         incoming-stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Param        request body appinv.UpdateIncomingStockRequest true "Shipment update request"
// @Success      200 {object} APIResponse[appinv.IncomingStockOutcome]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock/{id} [put]
func (h *IncomingStockHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appinv.UpdateIncomingStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	outcome, err := h.incomingService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// Delete handles DELETE /incoming-stock/:id
// @ID           deleteIncomingStock
// @Summary      Delete an incoming shipment
// @Description  Delete a shipment, releasing the production it claimed
// @Tags         incoming-stock
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} APIResponse[appinv.IncomingStockOutcome]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock/{id} [delete]
func (h *IncomingStockHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	outcome, err := h.incomingService.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// Approve handles POST /incoming-stock/:id/approve
// @ID           approveIncomingStock
// @Summary      Approve an incoming shipment
// @Description  Mark a pending shipment as arrived
// @Tags         incoming-stock
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} APIResponse[appinv.IncomingStockOutcome]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock/{id}/approve [post]
func (h *IncomingStockHandler) Approve(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	outcome, err := h.incomingService.Approve(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// BatchApprove handles POST /incoming-stock/batch-approve
// @ID           batchApproveIncomingStock
// @Summary      Approve several shipments
// @Description  Approve pending shipments one by one, skipping those already arrived
// @Tags         incoming-stock
// @Accept       json
// @Produce      json
// @Param        request body appinv.BatchRequest true "IDs to approve"
// @Success      200 {object} APIResponse[appinv.BatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock/batch-approve [post]
func (h *IncomingStockHandler) BatchApprove(c *gin.Context) {
	var req appinv.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, h.incomingService.BatchApprove(c.Request.Context(), req.IDs))
}

// BatchDelete handles POST /incoming-stock/batch-delete
// @ID           batchDeleteIncomingStock
// @Summary      Delete several shipments
// @Description  Delete shipments one by one, reporting the ones that failed
// @Tags         incoming-stock
// @Accept       json
// @Produce      json
// @Param        request body appinv.BatchRequest true "IDs to delete"
// @Success      200 {object} APIResponse[appinv.BatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /incoming-stock/batch-delete [post]
func (h *IncomingStockHandler) BatchDelete(c *gin.Context) {
	var req appinv.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, h.incomingService.BatchDelete(c.Request.Context(), req.IDs))
}
