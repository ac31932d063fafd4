package models

import (
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockMovementModel is the persistence model for the StockMovement ledger entry.
type StockMovementModel struct {
	BaseModel
	ProductID   uuid.UUID              `gorm:"type:uuid;not null;index:idx_stock_movements_product_warehouse,priority:1"`
	WarehouseID uuid.UUID              `gorm:"type:uuid;not null;index:idx_stock_movements_product_warehouse,priority:2"`
	Type        inventory.MovementType `gorm:"type:varchar(3);not null"`
	Quantity    int                    `gorm:"not null"`
	Date        time.Time              `gorm:"type:date;not null;index"`
	Notes       string                 `gorm:"type:text"`

	Product   *ProductModel   `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Warehouse *WarehouseModel `gorm:"foreignKey:WarehouseID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		BaseEntity:  m.BaseModel.ToDomain(),
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		Date:        m.Date,
		Notes:       m.Notes,
	}
}

// FromDomain populates the persistence model from a domain StockMovement.
func (m *StockMovementModel) FromDomain(mv *inventory.StockMovement) {
	m.FromDomainBaseEntity(mv.BaseEntity)
	m.ProductID = mv.ProductID
	m.WarehouseID = mv.WarehouseID
	m.Type = mv.Type
	m.Quantity = mv.Quantity
	m.Date = mv.Date
	m.Notes = mv.Notes
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	m := &StockMovementModel{}
	m.FromDomain(mv)
	return m
}

// IncomingStockModel is the persistence model for the IncomingStock entity.
type IncomingStockModel struct {
	BaseModel
	ProductID           uuid.UUID                `gorm:"type:uuid;not null;index"`
	WarehouseID         uuid.UUID                `gorm:"type:uuid;not null;index"`
	Quantity            int                      `gorm:"not null"`
	ExpectedArrivalDate time.Time                `gorm:"type:date;not null;index"`
	Status              inventory.IncomingStatus `gorm:"type:varchar(10);not null;default:'PENDING';index"`
	Notes               string                   `gorm:"type:text"`

	Product   *ProductModel   `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Warehouse *WarehouseModel `gorm:"foreignKey:WarehouseID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (IncomingStockModel) TableName() string {
	return "incoming_stock"
}

// ToDomain converts the persistence model to a domain IncomingStock entity.
func (m *IncomingStockModel) ToDomain() *inventory.IncomingStock {
	return &inventory.IncomingStock{
		BaseEntity:          m.BaseModel.ToDomain(),
		ProductID:           m.ProductID,
		WarehouseID:         m.WarehouseID,
		Quantity:            m.Quantity,
		ExpectedArrivalDate: m.ExpectedArrivalDate,
		Status:              m.Status,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain IncomingStock entity.
func (m *IncomingStockModel) FromDomain(s *inventory.IncomingStock) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.ProductID = s.ProductID
	m.WarehouseID = s.WarehouseID
	m.Quantity = s.Quantity
	m.ExpectedArrivalDate = s.ExpectedArrivalDate
	m.Status = s.Status
	m.Notes = s.Notes
}

// IncomingStockModelFromDomain creates a new persistence model from a domain IncomingStock entity.
func IncomingStockModelFromDomain(s *inventory.IncomingStock) *IncomingStockModel {
	m := &IncomingStockModel{}
	m.FromDomain(s)
	return m
}

// ProductionOrderModel is the persistence model for the ProductionOrder entity.
type ProductionOrderModel struct {
	BaseModel
	ProductID         uuid.UUID `gorm:"type:uuid;not null;index:idx_production_orders_product_created,priority:1"`
	OrderNumber       string    `gorm:"type:varchar(100);not null;index"`
	Quantity          int       `gorm:"not null"`
	RemainingQuantity int       `gorm:"not null"`

	Product *ProductModel `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (ProductionOrderModel) TableName() string {
	return "production_orders"
}

// ToDomain converts the persistence model to a domain ProductionOrder entity.
func (m *ProductionOrderModel) ToDomain() *inventory.ProductionOrder {
	return &inventory.ProductionOrder{
		BaseEntity:        m.BaseModel.ToDomain(),
		ProductID:         m.ProductID,
		OrderNumber:       m.OrderNumber,
		Quantity:          m.Quantity,
		RemainingQuantity: m.RemainingQuantity,
	}
}

// FromDomain populates the persistence model from a domain ProductionOrder entity.
func (m *ProductionOrderModel) FromDomain(o *inventory.ProductionOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.ProductID = o.ProductID
	m.OrderNumber = o.OrderNumber
	m.Quantity = o.Quantity
	m.RemainingQuantity = o.RemainingQuantity
}

// ProductionOrderModelFromDomain creates a new persistence model from a domain ProductionOrder entity.
func ProductionOrderModelFromDomain(o *inventory.ProductionOrder) *ProductionOrderModel {
	m := &ProductionOrderModel{}
	m.FromDomain(o)
	return m
}
