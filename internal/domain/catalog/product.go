package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is applied to products created without an explicit threshold
const DefaultLowStockThreshold = 10

// Dimensions holds the physical size of one unit of a product
type Dimensions struct {
	Weight decimal.Decimal
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
}

// Product is a stock-keeping unit.
// SKU is the store SKU and must be unique; Name is the product label that
// groups several SKUs of the same goods together on the dashboard.
type Product struct {
	shared.BaseEntity
	SKU               string
	FNSKU             string
	Name              string
	Dimensions        Dimensions
	LowStockThreshold int
}

// NewProduct creates a new product. An empty name defaults to the SKU.
func NewProduct(sku, name string) (*Product, error) {
	sku = strings.TrimSpace(sku)
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = sku
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		SKU:        sku,
		Name:       name,
		Dimensions: Dimensions{
			Weight: decimal.Zero,
			Length: decimal.Zero,
			Width:  decimal.Zero,
			Height: decimal.Zero,
		},
		LowStockThreshold: DefaultLowStockThreshold,
	}, nil
}

// Label returns the lookup label shown in product pickers
func (p *Product) Label() string {
	return fmt.Sprintf("%s (%s)", p.SKU, p.Name)
}

// Rename changes the product name label
func (p *Product) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = name
	p.UpdatedAt = time.Now()
	return nil
}

// ChangeSKU changes the store SKU
func (p *Product) ChangeSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if err := validateSKU(sku); err != nil {
		return err
	}
	p.SKU = sku
	p.UpdatedAt = time.Now()
	return nil
}

// SetFNSKU sets the fulfilment network SKU
func (p *Product) SetFNSKU(fnsku string) error {
	fnsku = strings.TrimSpace(fnsku)
	if len(fnsku) > 100 {
		return shared.NewDomainError("INVALID_FNSKU", "FNSKU cannot exceed 100 characters")
	}
	p.FNSKU = fnsku
	p.UpdatedAt = time.Now()
	return nil
}

// SetDimensions sets weight and size, rounded to two decimal places
func (p *Product) SetDimensions(d Dimensions) error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"Weight", d.Weight},
		{"Length", d.Length},
		{"Width", d.Width},
		{"Height", d.Height},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return shared.NewDomainError("INVALID_DIMENSION", f.name+" cannot be negative")
		}
	}

	p.Dimensions = Dimensions{
		Weight: d.Weight.Round(2),
		Length: d.Length.Round(2),
		Width:  d.Width.Round(2),
		Height: d.Height.Round(2),
	}
	p.UpdatedAt = time.Now()
	return nil
}

// SetLowStockThreshold sets the dashboard alert threshold. Zero disables the alert.
func (p *Product) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}
	if threshold > math.MaxInt32 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold is too large")
	}
	p.LowStockThreshold = threshold
	p.UpdatedAt = time.Now()
	return nil
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 100 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
