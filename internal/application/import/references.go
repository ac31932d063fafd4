package importapp

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/spreadsheet"
	"github.com/google/uuid"
)

// referenceCache resolves SKUs and warehouse codes once per import
type referenceCache struct {
	products   catalog.ProductRepository
	warehouses catalog.WarehouseRepository
	skus       map[string]uuid.UUID
	codes      map[string]uuid.UUID
}

func newReferenceCache(products catalog.ProductRepository, warehouses catalog.WarehouseRepository) *referenceCache {
	return &referenceCache{
		products:   products,
		warehouses: warehouses,
		skus:       make(map[string]uuid.UUID),
		codes:      make(map[string]uuid.UUID),
	}
}

// product returns the id of the product with sku. Misses are cached as uuid.Nil.
func (c *referenceCache) product(ctx context.Context, sku string) (uuid.UUID, bool, error) {
	if id, ok := c.skus[sku]; ok {
		return id, id != uuid.Nil, nil
	}
	p, err := c.products.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.skus[sku] = uuid.Nil
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	c.skus[sku] = p.ID
	return p.ID, true, nil
}

// warehouse returns the id of the warehouse with code, case-insensitively
func (c *referenceCache) warehouse(ctx context.Context, code string) (uuid.UUID, bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if id, ok := c.codes[code]; ok {
		return id, id != uuid.Nil, nil
	}
	w, err := c.warehouses.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.codes[code] = uuid.Nil
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	c.codes[code] = w.ID
	return w.ID, true, nil
}

// resolve looks up the row's sku and warehouse_code columns
func (c *referenceCache) resolve(ctx context.Context, row *spreadsheet.Row) (uuid.UUID, uuid.UUID, *spreadsheet.RowError, error) {
	productID, found, err := c.product(ctx, row.Get("sku"))
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	if !found {
		return uuid.Nil, uuid.Nil, referenceError(row, "sku", "product"), nil
	}
	warehouseID, found, err := c.warehouse(ctx, row.Get("warehouse_code"))
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	if !found {
		return uuid.Nil, uuid.Nil, referenceError(row, "warehouse_code", "warehouse"), nil
	}
	return productID, warehouseID, nil, nil
}
