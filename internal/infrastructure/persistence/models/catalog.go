package models

import (
	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// WarehouseModel is the persistence model for the Warehouse entity.
type WarehouseModel struct {
	BaseModel
	Code    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_warehouses_code"`
	Name    string `gorm:"type:varchar(100);not null"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse entity.
func (m *WarehouseModel) ToDomain() *catalog.Warehouse {
	return &catalog.Warehouse{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Name:       m.Name,
		Address:    m.Address,
	}
}

// FromDomain populates the persistence model from a domain Warehouse entity.
func (m *WarehouseModel) FromDomain(w *catalog.Warehouse) {
	m.FromDomainBaseEntity(w.BaseEntity)
	m.Code = w.Code
	m.Name = w.Name
	m.Address = w.Address
}

// WarehouseModelFromDomain creates a new persistence model from a domain Warehouse entity.
func WarehouseModelFromDomain(w *catalog.Warehouse) *WarehouseModel {
	m := &WarehouseModel{}
	m.FromDomain(w)
	return m
}

// ProductModel is the persistence model for the Product entity.
type ProductModel struct {
	BaseModel
	SKU               string          `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_products_sku"`
	FNSKU             string          `gorm:"column:fnsku;type:varchar(100)"`
	Name              string          `gorm:"type:varchar(200);not null;index"`
	Weight            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Length            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Width             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Height            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	LowStockThreshold int             `gorm:"not null;default:10"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		SKU:        m.SKU,
		FNSKU:      m.FNSKU,
		Name:       m.Name,
		Dimensions: catalog.Dimensions{
			Weight: m.Weight,
			Length: m.Length,
			Width:  m.Width,
			Height: m.Height,
		},
		LowStockThreshold: m.LowStockThreshold,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.SKU = p.SKU
	m.FNSKU = p.FNSKU
	m.Name = p.Name
	m.Weight = p.Dimensions.Weight
	m.Length = p.Dimensions.Length
	m.Width = p.Dimensions.Width
	m.Height = p.Dimensions.Height
	m.LowStockThreshold = p.LowStockThreshold
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
