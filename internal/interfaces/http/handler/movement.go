package handler

import (
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// MovementHandler handles stock ledger entries
type MovementHandler struct {
	BaseHandler
	movementService *appinv.MovementService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(movementService *appinv.MovementService) *MovementHandler {
	return &MovementHandler{movementService: movementService}
}

// Record handles POST /movements
// @ID           recordMovement
// @Summary      Record a stock movement
// @Description  Append an IN or OUT entry to the ledger
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        request body appinv.RecordMovementRequest true "Movement to record"
// @Success      201 {object} APIResponse[appinv.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /movements [post]
func (h *MovementHandler) Record(c *gin.Context) {
	var req appinv.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	movement, err := h.movementService.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// GetByID handles GET /movements/:id
// @ID           getMovementById
// @Summary      Get a movement
// @Description  Retrieve a ledger entry by its ID
// @Tags         movements
// @Produce      json
// @Param        id path string true "Movement ID" format(uuid)
// @Success      200 {object} APIResponse[appinv.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /movements/{id} [get]
func (h *MovementHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	movement, err := h.movementService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movement)
}

// List handles GET /movements
// @ID           listMovements
// @Summary      List movements
// @Description  List ledger entries filtered by product, warehouse, type and date range
// @Tags         movements
// @Produce      json
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        warehouse_id query string false "Warehouse ID" format(uuid)
// @Param        type query string false "Movement type" Enums(IN, OUT)
// @Param        date_from query string false "First day (YYYY-MM-DD)"
// @Param        date_to query string false "Last day (YYYY-MM-DD)"
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appinv.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /movements [get]
func (h *MovementHandler) List(c *gin.Context) {
	var filter appinv.MovementListFilter
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

	movements, total, err := h.movementService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// Delete handles DELETE /movements/:id. Production orders are not
// re-credited for the removed entry.
// @ID           deleteMovement
// @Summary      Delete a movement
// @Description  Remove a ledger entry. Production orders are not re-credited.
// @Tags         movements
// @Produce      json
// @Param        id path string true "Movement ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /movements/{id} [delete]
func (h *MovementHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.movementService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// BatchDelete handles POST /movements/batch-delete
// @ID           batchDeleteMovements
// @Summary      Delete several movements
// @Description  Delete ledger entries one by one, reporting the ones that failed
// @Tags         movements
// @Accept       json
// @Produce      json
// @Param        request body appinv.BatchRequest true "IDs to delete"
// @Success      200 {object} APIResponse[appinv.BatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /movements/batch-delete [post]
func (h *MovementHandler) BatchDelete(c *gin.Context) {
	var req appinv.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, h.movementService.BatchDelete(c.Request.Context(), req.IDs))
}
