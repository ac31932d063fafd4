package handler

import (
	catalogapp "github.com/erp/stockledger/internal/application/catalog"
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// WarehouseHandler handles warehouse-related API endpoints
type WarehouseHandler struct {
	BaseHandler
	warehouseService *catalogapp.WarehouseService
}

// NewWarehouseHandler creates a new WarehouseHandler
func NewWarehouseHandler(warehouseService *catalogapp.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{warehouseService: warehouseService}
}

// Create handles POST /warehouses
// @ID           createWarehouse
// @Summary      Create a warehouse
// @Description  Create a warehouse with a unique code
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateWarehouseRequest true "Warehouse creation request"
// @Success      201 {object} APIResponse[catalogapp.WarehouseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /warehouses [post]
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req catalogapp.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	warehouse, err := h.warehouseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, warehouse)
}

// GetByID handles GET /warehouses/:id
// @ID           getWarehouseById
// @Summary      Get a warehouse
// @Description  Retrieve a warehouse by its ID
// @Tags         warehouses
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.WarehouseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /warehouses/{id} [get]
func (h *WarehouseHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	warehouse, err := h.warehouseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouse)
}

// List handles GET /warehouses
// @ID           listWarehouses
// @Summary      List warehouses
// @Description  List warehouses with search, sorting and pagination
// @Tags         warehouses
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]catalogapp.WarehouseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /warehouses [get]
func (h *WarehouseHandler) List(c *gin.Context) {
	var filter catalogapp.WarehouseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	warehouses, total, err := h.warehouseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, warehouses, total, filter.Page, filter.PageSize)
}

// Update handles PUT /warehouses/:id
// @ID           updateWarehouse
// @Summary      Update a warehouse
// @Description  Update the code, name or address of a warehouse
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Param        request body catalogapp.UpdateWarehouseRequest true "Warehouse update request"
// @Success      200 {object} APIResponse[catalogapp.WarehouseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /warehouses/{id} [put]
func (h *WarehouseHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalogapp.UpdateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	warehouse, err := h.warehouseService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouse)
}

// Delete handles DELETE /warehouses/:id. Warehouses still referenced by the
// ledger or by shipments are refused.
// @ID           deleteWarehouse
// @Summary      Delete a warehouse
// @Description  Delete a warehouse that no movement or shipment references
// @Tags         warehouses
// @Produce      json
// @Param        id path string true "Warehouse ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /warehouses/{id} [delete]
func (h *WarehouseHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.warehouseService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// BatchDelete handles POST /warehouses/batch-delete
// @ID           batchDeleteWarehouses
// @Summary      Delete several warehouses
// @Description  Delete warehouses one by one, reporting the ones that failed
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Param        request body appinv.BatchRequest true "IDs to delete"
// @Success      200 {object} APIResponse[appinv.BatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /warehouses/batch-delete [post]
func (h *WarehouseHandler) BatchDelete(c *gin.Context) {
	var req appinv.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, h.warehouseService.BatchDelete(c.Request.Context(), req.IDs))
}

// Merge handles POST /warehouses/:id/merge, moving every movement and
// shipment of :id to the target and removing :id
// @ID           mergeWarehouse
// @Summary      Merge a warehouse into another
// @Description  Move every movement and shipment of the warehouse to the target and delete it
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Param        id path string true "Source warehouse ID" format(uuid)
// @Param        request body catalogapp.MergeWarehouseRequest true "Merge target"
// @Success      200 {object} APIResponse[catalogapp.MergeResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /warehouses/{id}/merge [post]
func (h *WarehouseHandler) Merge(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalogapp.MergeWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.warehouseService.Merge(c.Request.Context(), id, req.TargetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
