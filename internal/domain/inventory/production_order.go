package inventory

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductionOrderStatus is derived from the remaining quantity and is informational only
type ProductionOrderStatus string

const (
	ProductionOrderInProduction ProductionOrderStatus = "IN_PRODUCTION"
	ProductionOrderPartial      ProductionOrderStatus = "PARTIAL"
	ProductionOrderComplete     ProductionOrderStatus = "COMPLETE"
)

// ProductionOrder is a factory order whose remaining quantity is the
// capacity not yet claimed by in-transit shipments.
//
// Invariant: 0 <= RemainingQuantity <= Quantity.
type ProductionOrder struct {
	shared.BaseEntity
	ProductID         uuid.UUID
	OrderNumber       string
	Quantity          int
	RemainingQuantity int
}

// NewProductionOrder creates an order with its full quantity still open
func NewProductionOrder(productID uuid.UUID, orderNumber string, quantity int) (*ProductionOrder, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if err := validateOrderNumber(orderNumber); err != nil {
		return nil, err
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	return &ProductionOrder{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		OrderNumber:       orderNumber,
		Quantity:          quantity,
		RemainingQuantity: quantity,
	}, nil
}

// Status derives the order status from its remaining quantity
func (o *ProductionOrder) Status() ProductionOrderStatus {
	switch {
	case o.RemainingQuantity <= 0:
		return ProductionOrderComplete
	case o.RemainingQuantity < o.Quantity:
		return ProductionOrderPartial
	default:
		return ProductionOrderInProduction
	}
}

// Claimed returns how much of the order has been taken by shipments
func (o *ProductionOrder) Claimed() int {
	return o.Quantity - o.RemainingQuantity
}

// IsOpen reports whether the order still has unclaimed capacity
func (o *ProductionOrder) IsOpen() bool {
	return o.RemainingQuantity > 0
}

// Consume takes up to n units of remaining capacity and returns the amount taken
func (o *ProductionOrder) Consume(n int) int {
	if n <= 0 || o.RemainingQuantity <= 0 {
		return 0
	}
	take := min(n, o.RemainingQuantity)
	o.RemainingQuantity -= take
	o.UpdatedAt = time.Now()
	return take
}

// Restore gives back up to n units of claimed capacity and returns the amount given
func (o *ProductionOrder) Restore(n int) int {
	room := o.Claimed()
	if n <= 0 || room <= 0 {
		return 0
	}
	give := min(n, room)
	o.RemainingQuantity += give
	o.UpdatedAt = time.Now()
	return give
}

// ChangeQuantity edits the order size and rescales the remaining quantity
// proportionally, rounding down.
func (o *ProductionOrder) ChangeQuantity(quantity int) error {
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	if quantity == o.Quantity {
		return nil
	}

	o.RemainingQuantity = RescaleRemaining(o.RemainingQuantity, o.Quantity, quantity)
	o.Quantity = quantity
	o.UpdatedAt = time.Now()
	return nil
}

// ChangeOrderNumber renames the order
func (o *ProductionOrder) ChangeOrderNumber(orderNumber string) error {
	orderNumber = strings.TrimSpace(orderNumber)
	if err := validateOrderNumber(orderNumber); err != nil {
		return err
	}
	o.OrderNumber = orderNumber
	o.UpdatedAt = time.Now()
	return nil
}

// RescaleRemaining returns floor(remaining * newQty / oldQty) clamped to [0, newQty]
func RescaleRemaining(remaining, oldQty, newQty int) int {
	if oldQty <= 0 {
		return newQty
	}
	scaled := int(int64(remaining) * int64(newQty) / int64(oldQty))
	return max(0, min(scaled, newQty))
}

func validateOrderNumber(orderNumber string) error {
	if orderNumber == "" {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 100 {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 100 characters")
	}
	return nil
}
