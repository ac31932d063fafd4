package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxQuantity is the largest quantity a movement, shipment or order can hold.
// Quantity columns are 32-bit INTEGER in the schema.
const MaxQuantity = math.MaxInt32

// ValidateQuantity checks that quantity is positive and fits the schema
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > MaxQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))
	}
	return nil
}

// MovementType is the direction of a stock movement
type MovementType string

const (
	MovementTypeIn  MovementType = "IN"
	MovementTypeOut MovementType = "OUT"
)

// IsValid reports whether t is a known movement type
func (t MovementType) IsValid() bool {
	return t == MovementTypeIn || t == MovementTypeOut
}

// ParseMovementType parses a case-sensitive IN/OUT value
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Movement type must be IN or OUT")
	}
	return t, nil
}

// StockMovement is one immutable ledger fact. Stock is never stored; it is
// always the sum of IN movements minus the sum of OUT movements.
type StockMovement struct {
	shared.BaseEntity
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Type        MovementType
	Quantity    int
	Date        time.Time
	Notes       string
}

// NewStockMovement creates a ledger entry dated on the calendar day of date
func NewStockMovement(productID, warehouseID uuid.UUID, movementType MovementType, quantity int, date time.Time, notes string) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Movement type must be IN or OUT")
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Movement date is required")
	}

	return &StockMovement{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        movementType,
		Quantity:    quantity,
		Date:        shared.TruncateToDate(date),
		Notes:       notes,
	}, nil
}

// SignedQuantity returns the movement's contribution to stock
func (m *StockMovement) SignedQuantity() int {
	if m.Type == MovementTypeOut {
		return -m.Quantity
	}
	return m.Quantity
}

// StockLevel is the aggregated stock of one product in one warehouse
type StockLevel struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int
}

// SumStock folds movements into a single stock figure. Movements dated after
// asOf are ignored when asOf is set.
func SumStock(movements []StockMovement, asOf *time.Time) int {
	total := 0
	for i := range movements {
		if asOf != nil && movements[i].Date.After(shared.TruncateToDate(*asOf)) {
			continue
		}
		total += movements[i].SignedQuantity()
	}
	return total
}
