package catalog

import (
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
)

// Warehouse is a physical stock location
type Warehouse struct {
	shared.BaseEntity
	Code    string
	Name    string
	Address string
}

// NewWarehouse creates a new warehouse
func NewWarehouse(code, name, address string) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validateWarehouseCode(code); err != nil {
		return nil, err
	}
	if err := validateWarehouseName(name); err != nil {
		return nil, err
	}

	return &Warehouse{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       strings.TrimSpace(name),
		Address:    address,
	}, nil
}

// Update changes the display fields of the warehouse
func (w *Warehouse) Update(name, address string) error {
	if err := validateWarehouseName(name); err != nil {
		return err
	}

	w.Name = strings.TrimSpace(name)
	w.Address = address
	w.UpdatedAt = time.Now()
	return nil
}

// ChangeCode changes the warehouse code. Callers must make sure no movement
// references the warehouse before calling this.
func (w *Warehouse) ChangeCode(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validateWarehouseCode(code); err != nil {
		return err
	}

	w.Code = code
	w.UpdatedAt = time.Now()
	return nil
}

func validateWarehouseCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Warehouse code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Warehouse code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateWarehouseName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Warehouse name cannot exceed 100 characters")
	}
	return nil
}
