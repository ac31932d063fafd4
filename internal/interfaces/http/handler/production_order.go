package handler

import (
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// ProductionOrderHandler handles production orders and direct allocation
// adjustments
type ProductionOrderHandler struct {
	BaseHandler
	orderService *appinv.ProductionOrderService
	allocator    *appinv.Allocator
}

// NewProductionOrderHandler creates a new ProductionOrderHandler
func NewProductionOrderHandler(orderService *appinv.ProductionOrderService, allocator *appinv.Allocator) *ProductionOrderHandler {
	return &ProductionOrderHandler{
		orderService: orderService,
		allocator:    allocator,
	}
}

// Create handles POST /production-orders
// @ID           createProductionOrder
// @Summary      Create a production order
// @Description  Create an open production order for a product
// @Tags         production-orders
// @Accept       json
// @Produce      json
// @Param        request body appinv.CreateProductionOrderRequest true "Order creation request"
// @Success      201 {object} APIResponse[appinv.ProductionOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /production-orders [post]
func (h *ProductionOrderHandler) Create(c *gin.Context) {
	var req appinv.CreateProductionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID handles GET /production-orders/:id
// @ID           getProductionOrderById
// @Summary      Get a production order
// @Description  Retrieve a production order by its ID
// @Tags         production-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[appinv.ProductionOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /production-orders/{id} [get]
func (h *ProductionOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List handles GET /production-orders
// @ID           listProductionOrders
// @Summary      List production orders
// @Description  List production orders filtered by product and status
// @Tags         production-orders
// @Produce      json
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        status query string false "Order status" Enums(IN_PRODUCTION, PARTIAL, COMPLETE)
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appinv.ProductionOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /production-orders [get]
func (h *ProductionOrderHandler) List(c *gin.Context) {
	var filter appinv.ProductionOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	var ok bool
	if filter.ProductID, ok = h.queryUUID(c, "product_id"); !ok {
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Update handles PUT /production-orders/:id
// @ID           updateProductionOrder
// @Summary      Update a production order
// @Description  Rename an order or change its quantity, rescaling what remains
// @Tags         production-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body appinv.UpdateProductionOrderRequest true "Order update request"
// @Success      200 {object} APIResponse[appinv.ProductionOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /production-orders/{id} [put]
func (h *ProductionOrderHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appinv.UpdateProductionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete handles DELETE /production-orders/:id
// @ID           deleteProductionOrder
// @Summary      Delete a production order
// @Description  Delete a production order
// @Tags         production-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /production-orders/{id} [delete]
func (h *ProductionOrderHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// BatchDelete handles POST /production-orders/batch-delete
// @ID           batchDeleteProductionOrders
// @Summary      Delete several production orders
// @Description  Delete orders one by one, reporting the ones that failed
// @Tags         production-orders
// @Accept       json
// @Produce      json
// @Param        request body appinv.BatchRequest true "IDs to delete"
// @Success      200 {object} APIResponse[appinv.BatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /production-orders/batch-delete [post]
func (h *ProductionOrderHandler) BatchDelete(c *gin.Context) {
	var req appinv.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, h.orderService.BatchDelete(c.Request.Context(), req.IDs))
}

// Adjust handles POST /production-orders/adjust. A negative delta deducts
// from the oldest open orders, a positive one restores the newest.
// @ID           adjustProduction
// @Summary      Adjust open production
// @Description  Deduct from the oldest open orders or restore the newest ones
// @Tags         production-orders
// @Accept       json
// @Produce      json
// @Param        request body appinv.AdjustRequest true "Product and signed delta"
// @Success      200 {object} APIResponse[appinv.AllocationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /production-orders/adjust [post]
func (h *ProductionOrderHandler) Adjust(c *gin.Context) {
	var req appinv.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.allocator.Adjust(c.Request.Context(), req.ProductID, req.Delta)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
