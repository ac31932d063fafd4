package inventory

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// AllocationDirection tells whether an adjustment claims or releases capacity
type AllocationDirection string

const (
	AllocationDeduct  AllocationDirection = "deduct"
	AllocationRestore AllocationDirection = "restore"
	AllocationNone    AllocationDirection = "none"
)

// DirectionOf returns the direction of an adjustment delta
func DirectionOf(delta int) AllocationDirection {
	switch {
	case delta > 0:
		return AllocationDeduct
	case delta < 0:
		return AllocationRestore
	default:
		return AllocationNone
	}
}

// OrderChange records how one production order moved during an adjustment
type OrderChange struct {
	OrderID         uuid.UUID `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	Amount          int       `json:"amount"`
	RemainingBefore int       `json:"remaining_before"`
	RemainingAfter  int       `json:"remaining_after"`
}

// AllocationResult is the outcome of one adjustment
type AllocationResult struct {
	ProductID   uuid.UUID           `json:"product_id"`
	Delta       int                 `json:"delta"`
	Direction   AllocationDirection `json:"direction"`
	Touched     int                 `json:"orders_touched"`
	Applied     int                 `json:"applied"`
	Unallocated int                 `json:"unallocated"`
	Changes     []OrderChange       `json:"changes,omitempty"`
}

// HasUnallocated reports whether part of the delta found no order to land on
func (r *AllocationResult) HasUnallocated() bool {
	return r.Unallocated > 0
}

// SortForDeduction orders production orders oldest first
func SortForDeduction(orders []ProductionOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.String() < orders[j].ID.String()
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

// SortForRestoration orders production orders newest first
func SortForRestoration(orders []ProductionOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.String() > orders[j].ID.String()
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// PlanDeduction consumes amount from orders in the given order, skipping
// exhausted ones, and returns the changes and the amount left over.
// The orders are modified in place.
func PlanDeduction(orders []ProductionOrder, amount int) ([]OrderChange, int) {
	changes := make([]OrderChange, 0)
	left := amount

	for i := range orders {
		if left <= 0 {
			break
		}
		order := &orders[i]
		before := order.RemainingQuantity
		taken := order.Consume(left)
		if taken == 0 {
			continue
		}
		left -= taken
		changes = append(changes, OrderChange{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			Amount:          taken,
			RemainingBefore: before,
			RemainingAfter:  order.RemainingQuantity,
		})
	}

	return changes, left
}

// PlanRestoration gives amount back to orders in the given order, skipping
// orders with nothing claimed, and returns the changes and the amount left over.
// The orders are modified in place.
func PlanRestoration(orders []ProductionOrder, amount int) ([]OrderChange, int) {
	changes := make([]OrderChange, 0)
	left := amount

	for i := range orders {
		if left <= 0 {
			break
		}
		order := &orders[i]
		before := order.RemainingQuantity
		given := order.Restore(left)
		if given == 0 {
			continue
		}
		left -= given
		changes = append(changes, OrderChange{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			Amount:          given,
			RemainingBefore: before,
			RemainingAfter:  order.RemainingQuantity,
		})
	}

	return changes, left
}

// AllocationEngine walks a product's production orders to claim or release
// capacity. Deductions go oldest order first, restorations newest order first.
// Any amount that does not fit is dropped and reported as Unallocated.
//
// The engine does not manage transactions: the repository handed to Adjust
// must be bound to the caller's transaction so that a failed save rolls back
// every order touched by the walk.
type AllocationEngine struct{}

// NewAllocationEngine creates a new allocation engine
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// Adjust applies delta to the open production orders of a product
func (e *AllocationEngine) Adjust(ctx context.Context, repo ProductionOrderRepository, productID uuid.UUID, delta int) (*AllocationResult, error) {
	result := &AllocationResult{
		ProductID: productID,
		Delta:     delta,
		Direction: DirectionOf(delta),
		Changes:   []OrderChange{},
	}
	if delta == 0 {
		return result, nil
	}

	var (
		orders []ProductionOrder
		err    error
		left   int
	)
	if delta > 0 {
		orders, err = repo.FindOpenForDeduction(ctx, productID)
		if err != nil {
			return nil, err
		}
		SortForDeduction(orders)
		result.Changes, left = PlanDeduction(orders, delta)
	} else {
		orders, err = repo.FindForRestoration(ctx, productID)
		if err != nil {
			return nil, err
		}
		SortForRestoration(orders)
		result.Changes, left = PlanRestoration(orders, -delta)
	}

	touched := make(map[uuid.UUID]struct{}, len(result.Changes))
	for _, c := range result.Changes {
		touched[c.OrderID] = struct{}{}
	}
	for i := range orders {
		if _, ok := touched[orders[i].ID]; !ok {
			continue
		}
		if err := repo.Save(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	abs := delta
	if abs < 0 {
		abs = -abs
	}
	result.Touched = len(result.Changes)
	result.Unallocated = left
	result.Applied = abs - left
	return result, nil
}
