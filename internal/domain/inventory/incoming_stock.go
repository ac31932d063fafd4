package inventory

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// IncomingStatus is the lifecycle state of an in-transit shipment
type IncomingStatus string

const (
	IncomingStatusPending IncomingStatus = "PENDING"
	IncomingStatusArrived IncomingStatus = "ARRIVED"
)

// IsValid reports whether s is a known status
func (s IncomingStatus) IsValid() bool {
	return s == IncomingStatusPending || s == IncomingStatusArrived
}

// ArrivalNotesPrefix prefixes the notes of the IN movement written on approval
const ArrivalNotesPrefix = "Transferred from incoming shipment: "

// Soft outcomes surfaced to callers as warnings rather than errors
const (
	WarningNoOpenOrders   = "NO_OPEN_ORDERS"
	WarningAlreadyArrived = "ALREADY_ARRIVED"
)

// ErrAlreadyArrived is returned when approving a shipment that already arrived
var ErrAlreadyArrived = shared.NewDomainError(WarningAlreadyArrived, "Incoming shipment has already arrived")

// IncomingStock is a shipment that has been produced but has not reached the
// warehouse yet. While PENDING it holds a claim on production-order capacity.
type IncomingStock struct {
	shared.BaseEntity
	ProductID           uuid.UUID
	WarehouseID         uuid.UUID
	Quantity            int
	ExpectedArrivalDate time.Time
	Status              IncomingStatus
	Notes               string
}

// NewIncomingStock declares a new shipment. The status is always PENDING.
func NewIncomingStock(productID, warehouseID uuid.UUID, quantity int, expected time.Time, notes string) (*IncomingStock, error) {
	if err := validateIncoming(productID, warehouseID, quantity, expected); err != nil {
		return nil, err
	}

	return &IncomingStock{
		BaseEntity:          shared.NewBaseEntity(),
		ProductID:           productID,
		WarehouseID:         warehouseID,
		Quantity:            quantity,
		ExpectedArrivalDate: shared.TruncateToDate(expected),
		Status:              IncomingStatusPending,
		Notes:               strings.TrimSpace(notes),
	}, nil
}

// IsPending reports whether the shipment still claims production capacity
func (s *IncomingStock) IsPending() bool {
	return s.Status == IncomingStatusPending
}

// IncomingRevision carries the editable fields of a shipment
type IncomingRevision struct {
	ProductID           uuid.UUID
	WarehouseID         uuid.UUID
	Quantity            int
	ExpectedArrivalDate time.Time
	Status              IncomingStatus
	Notes               string
}

// Revise applies an edit. ARRIVED never goes back to PENDING.
func (s *IncomingStock) Revise(rev IncomingRevision) error {
	if err := validateIncoming(rev.ProductID, rev.WarehouseID, rev.Quantity, rev.ExpectedArrivalDate); err != nil {
		return err
	}
	if !rev.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Status must be PENDING or ARRIVED")
	}
	if s.Status == IncomingStatusArrived && rev.Status == IncomingStatusPending {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "An arrived shipment cannot return to PENDING")
	}

	s.ProductID = rev.ProductID
	s.WarehouseID = rev.WarehouseID
	s.Quantity = rev.Quantity
	s.ExpectedArrivalDate = shared.TruncateToDate(rev.ExpectedArrivalDate)
	s.Status = rev.Status
	s.Notes = strings.TrimSpace(rev.Notes)
	s.UpdatedAt = time.Now()
	return nil
}

// Approve marks the shipment ARRIVED and returns the IN movement that records
// its arrival in the ledger.
func (s *IncomingStock) Approve(on time.Time) (*StockMovement, error) {
	if !s.IsPending() {
		return nil, ErrAlreadyArrived
	}

	movement, err := NewStockMovement(s.ProductID, s.WarehouseID, MovementTypeIn, s.Quantity, on, ArrivalNotesPrefix+s.Notes)
	if err != nil {
		return nil, err
	}

	s.Status = IncomingStatusArrived
	s.UpdatedAt = time.Now()
	return movement, nil
}

// AllocationDelta returns the production capacity change implied by editing a
// shipment from (fromStatus, fromQty) to (toStatus, toQty). Positive values
// claim capacity, negative values release it.
func AllocationDelta(fromStatus IncomingStatus, fromQty int, toStatus IncomingStatus, toQty int) int {
	wasPending := fromStatus == IncomingStatusPending
	isPending := toStatus == IncomingStatusPending

	switch {
	case wasPending && isPending:
		return toQty - fromQty
	case !wasPending && isPending:
		return toQty
	case wasPending && !isPending:
		return -fromQty
	default:
		return 0
	}
}

func validateIncoming(productID, warehouseID uuid.UUID, quantity int, expected time.Time) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	if expected.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Expected arrival date is required")
	}
	return nil
}
