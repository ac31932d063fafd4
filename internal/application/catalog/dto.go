package catalog

import (
	"time"

	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SearchLimit is the default maximum number of products returned by a lookup
const SearchLimit = 20

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU               string           `json:"sku" binding:"required,min=1,max=100"`
	FNSKU             string           `json:"fnsku" binding:"max=100"`
	Name              string           `json:"name" binding:"max=200"`
	Weight            *decimal.Decimal `json:"weight"`
	Length            *decimal.Decimal `json:"length"`
	Width             *decimal.Decimal `json:"width"`
	Height            *decimal.Decimal `json:"height"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0,max=2147483647"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	SKU               *string          `json:"sku" binding:"omitempty,min=1,max=100"`
	FNSKU             *string          `json:"fnsku" binding:"omitempty,max=100"`
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Weight            *decimal.Decimal `json:"weight"`
	Length            *decimal.Decimal `json:"length"`
	Width             *decimal.Decimal `json:"width"`
	Height            *decimal.Decimal `json:"height"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0,max=2147483647"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	FNSKU             string          `json:"fnsku"`
	Name              string          `json:"name"`
	Label             string          `json:"label"`
	Weight            decimal.Decimal `json:"weight"`
	Length            decimal.Decimal `json:"length"`
	Width             decimal.Decimal `json:"width"`
	Height            decimal.Decimal `json:"height"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductListItem is a product row with its stock picture
type ProductListItem struct {
	ProductResponse
	Stock appinv.StockSummary `json:"stock"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductLookup is one entry of a product search
type ProductLookup struct {
	ID    uuid.UUID `json:"id"`
	SKU   string    `json:"sku"`
	Name  string    `json:"name"`
	Label string    `json:"label"`
}

// CreateWarehouseRequest represents a request to create a warehouse
type CreateWarehouseRequest struct {
	Code    string `json:"code" binding:"required,min=1,max=50"`
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Address string `json:"address" binding:"max=500"`
}

// UpdateWarehouseRequest represents a request to update a warehouse
type UpdateWarehouseRequest struct {
	Code    *string `json:"code" binding:"omitempty,min=1,max=50"`
	Name    *string `json:"name" binding:"omitempty,min=1,max=100"`
	Address *string `json:"address" binding:"omitempty,max=500"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseListFilter represents filter options for warehouse list
type WarehouseListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MergeWarehouseRequest names the warehouse that absorbs the source
type MergeWarehouseRequest struct {
	TargetID uuid.UUID `json:"target_id" binding:"required"`
}

// MergeResult reports what a warehouse merge moved
type MergeResult struct {
	SourceID       uuid.UUID `json:"source_id"`
	TargetID       uuid.UUID `json:"target_id"`
	MovementsMoved int64     `json:"movements_moved"`
	ShipmentsMoved int64     `json:"shipments_moved"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		FNSKU:             p.FNSKU,
		Name:              p.Name,
		Label:             p.Label(),
		Weight:            p.Dimensions.Weight,
		Length:            p.Dimensions.Length,
		Width:             p.Dimensions.Width,
		Height:            p.Dimensions.Height,
		LowStockThreshold: p.LowStockThreshold,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToProductLookup converts a domain Product to a search entry
func ToProductLookup(p *catalog.Product) ProductLookup {
	return ProductLookup{ID: p.ID, SKU: p.SKU, Name: p.Name, Label: p.Label()}
}

// ToWarehouseResponse converts a domain Warehouse to WarehouseResponse
func ToWarehouseResponse(w *catalog.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// ToWarehouseResponses converts a slice of domain warehouses
func ToWarehouseResponses(warehouses []catalog.Warehouse) []WarehouseResponse {
	responses := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		responses[i] = ToWarehouseResponse(&warehouses[i])
	}
	return responses
}
