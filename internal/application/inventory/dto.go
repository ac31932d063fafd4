package inventory

import (
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Warning codes attached to successful outcomes
const (
	WarningNoOpenOrders   = inventory.WarningNoOpenOrders
	WarningAlreadyArrived = inventory.WarningAlreadyArrived
	WarningExcessDropped  = "EXCESS_DROPPED"
)

// AllocationResult is the outcome of one allocation walk over the open
// production orders of a product
type AllocationResult = inventory.AllocationResult

// CreateIncomingStockRequest represents a request to declare an in-transit shipment
type CreateIncomingStockRequest struct {
	ProductID           uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID         uuid.UUID `json:"warehouse_id" binding:"required"`
	Quantity            int       `json:"quantity" binding:"required,gt=0,max=2147483647"`
	ExpectedArrivalDate string    `json:"expected_arrival_date" binding:"required"`
	Notes               string    `json:"notes" binding:"max=2000"`
}

// UpdateIncomingStockRequest represents a full edit of a shipment
type UpdateIncomingStockRequest struct {
	ProductID           uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID         uuid.UUID `json:"warehouse_id" binding:"required"`
	Quantity            int       `json:"quantity" binding:"required,gt=0,max=2147483647"`
	ExpectedArrivalDate string    `json:"expected_arrival_date" binding:"required"`
	Status              string    `json:"status" binding:"required,oneof=PENDING ARRIVED"`
	Notes               string    `json:"notes" binding:"max=2000"`
}

// IncomingStockListFilter represents filter options for the shipment list
type IncomingStockListFilter struct {
	ProductID   *uuid.UUID `form:"-"`
	WarehouseID *uuid.UUID `form:"-"`
	Status      string     `form:"status" binding:"omitempty,oneof=PENDING ARRIVED"`
	Search      string     `form:"search"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// IncomingStockResponse represents a shipment in API responses
type IncomingStockResponse struct {
	ID                  uuid.UUID `json:"id"`
	ProductID           uuid.UUID `json:"product_id"`
	WarehouseID         uuid.UUID `json:"warehouse_id"`
	Quantity            int       `json:"quantity"`
	ExpectedArrivalDate string    `json:"expected_arrival_date"`
	Status              string    `json:"status"`
	Notes               string    `json:"notes"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// IncomingStockOutcome is the result of a coordinator operation
type IncomingStockOutcome struct {
	Shipment    *IncomingStockResponse `json:"shipment,omitempty"`
	Movement    *MovementResponse      `json:"movement,omitempty"`
	Allocations []*AllocationResult `json:"allocations"`
	Warnings    []string            `json:"warnings"`
}

func (o *IncomingStockOutcome) warn(code string) {
	for _, w := range o.Warnings {
		if w == code {
			return
		}
	}
	o.Warnings = append(o.Warnings, code)
}

// HasWarning reports whether the outcome carries the given warning code
func (o *IncomingStockOutcome) HasWarning(code string) bool {
	for _, w := range o.Warnings {
		if w == code {
			return true
		}
	}
	return false
}

// BatchRequest carries the ids of a batch operation
type BatchRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1,max=500"`
}

// BatchItemError describes why one item of a batch failed
type BatchItemError struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// BatchResult aggregates a batch operation
type BatchResult struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Errors    []BatchItemError `json:"errors"`
}

// NewBatchResult creates an empty result for n items
func NewBatchResult(n int) *BatchResult {
	return &BatchResult{Total: n, Errors: []BatchItemError{}}
}

// Fail records a failed item
func (r *BatchResult) Fail(id uuid.UUID, code, message string) {
	r.Failed++
	r.Errors = append(r.Errors, BatchItemError{ID: id, Code: code, Message: message})
}

// CreateProductionOrderRequest represents a request to create a production order
type CreateProductionOrderRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	OrderNumber string    `json:"order_number" binding:"required,min=1,max=100"`
	Quantity    int       `json:"quantity" binding:"required,gt=0,max=2147483647"`
}

// UpdateProductionOrderRequest represents a partial edit of a production order
type UpdateProductionOrderRequest struct {
	OrderNumber *string `json:"order_number" binding:"omitempty,min=1,max=100"`
	Quantity    *int    `json:"quantity" binding:"omitempty,gt=0,max=2147483647"`
}

// AdjustRequest represents a direct allocation adjustment
type AdjustRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Delta     int       `json:"delta" binding:"min=-2147483647,max=2147483647"`
}

// ProductionOrderListFilter represents filter options for the production order list
type ProductionOrderListFilter struct {
	ProductID *uuid.UUID `form:"-"`
	Status    string     `form:"status" binding:"omitempty,oneof=IN_PRODUCTION PARTIAL COMPLETE"`
	Search    string     `form:"search"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ProductionOrderResponse represents a production order in API responses
type ProductionOrderResponse struct {
	ID                uuid.UUID `json:"id"`
	ProductID         uuid.UUID `json:"product_id"`
	OrderNumber       string    `json:"order_number"`
	Quantity          int       `json:"quantity"`
	RemainingQuantity int       `json:"remaining_quantity"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RecordMovementRequest represents a request to append a ledger entry
type RecordMovementRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	Type        string    `json:"type" binding:"required,oneof=IN OUT"`
	Quantity    int       `json:"quantity" binding:"required,gt=0,max=2147483647"`
	Date        string    `json:"date"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// MovementListFilter represents filter options for the movement list
type MovementListFilter struct {
	ProductID   *uuid.UUID `form:"-"`
	WarehouseID *uuid.UUID `form:"-"`
	Type        string     `form:"type" binding:"omitempty,oneof=IN OUT"`
	DateFrom    string     `form:"date_from"`
	DateTo      string     `form:"date_to"`
	Search      string     `form:"search"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	Date        string    `json:"date"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// StockQuery selects the stock figure to compute
type StockQuery struct {
	ProductID   uuid.UUID  `form:"-"`
	WarehouseID *uuid.UUID `form:"-"`
	AsOf        string     `form:"as_of"`
}

// StockResponse is a single stock figure
type StockResponse struct {
	ProductID   uuid.UUID  `json:"product_id"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
	AsOf        string     `json:"as_of,omitempty"`
	Quantity    int        `json:"quantity"`
}

// WarehouseColumn identifies a warehouse column of the stock matrix
type WarehouseColumn struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

// StockMatrixRow is one product's stock across warehouses. PerWarehouse is
// aligned with StockMatrix.Warehouses.
type StockMatrixRow struct {
	ProductID    uuid.UUID `json:"product_id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	PerWarehouse []int     `json:"per_warehouse"`
	Total        int       `json:"total"`
}

// StockMatrix is the stock of every product in every warehouse as of a date
type StockMatrix struct {
	AsOf       string            `json:"as_of"`
	Warehouses []WarehouseColumn `json:"warehouses"`
	Rows       []StockMatrixRow  `json:"rows"`
}

// WarehouseStock is one warehouse's line on the dashboard
type WarehouseStock struct {
	WarehouseID     uuid.UUID `json:"warehouse_id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	TotalStock      int       `json:"total_stock"`
	PendingIncoming int       `json:"pending_incoming"`
}

// LowStockGroup is a product name label whose combined stock is below threshold
type LowStockGroup struct {
	Name      string   `json:"name"`
	SKUs      []string `json:"skus"`
	Stock     int      `json:"stock"`
	Threshold int      `json:"threshold"`
}

// Dashboard summarizes the ledger
type Dashboard struct {
	ProductCount         int64            `json:"product_count"`
	WarehouseCount       int64            `json:"warehouse_count"`
	PendingIncomingCount int64            `json:"pending_incoming_count"`
	Warehouses           []WarehouseStock `json:"warehouses"`
	LowStock             []LowStockGroup  `json:"low_stock"`
}

// StockSummary is the per-product stock picture shown in product lists
type StockSummary struct {
	PerWarehouse    map[uuid.UUID]int `json:"per_warehouse"`
	Total           int               `json:"total"`
	PendingIncoming int               `json:"pending_incoming"`
	OpenProduction  int               `json:"open_production"`
}

// ToIncomingStockResponse converts a domain shipment to its response
func ToIncomingStockResponse(s *inventory.IncomingStock) IncomingStockResponse {
	return IncomingStockResponse{
		ID:                  s.ID,
		ProductID:           s.ProductID,
		WarehouseID:         s.WarehouseID,
		Quantity:            s.Quantity,
		ExpectedArrivalDate: s.ExpectedArrivalDate.Format(shared.DateLayout),
		Status:              string(s.Status),
		Notes:               s.Notes,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// ToProductionOrderResponse converts a domain production order to its response
func ToProductionOrderResponse(o *inventory.ProductionOrder) ProductionOrderResponse {
	return ProductionOrderResponse{
		ID:                o.ID,
		ProductID:         o.ProductID,
		OrderNumber:       o.OrderNumber,
		Quantity:          o.Quantity,
		RemainingQuantity: o.RemainingQuantity,
		Status:            string(o.Status()),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// ToMovementResponse converts a domain movement to its response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		Date:        m.Date.Format(shared.DateLayout),
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}
