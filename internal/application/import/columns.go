package importapp

import (
	"github.com/erp/stockledger/internal/infrastructure/spreadsheet"
)

const initialStockNotes = "initial stock import"

// Rules returns the validation rules of an importable entity. Required
// columns must be present in the header row.
func Rules(entity Entity, dateFormat string) []spreadsheet.FieldRule {
	switch entity {
	case EntityProducts:
		return []spreadsheet.FieldRule{
			spreadsheet.Field("sku").Required().MaxLength(100).Unique().Build(),
			spreadsheet.Field("fnsku").MaxLength(100).Build(),
			spreadsheet.Field("name").MaxLength(200).Build(),
			spreadsheet.Field("weight").Required().Decimal().Positive().Build(),
			spreadsheet.Field("length").Required().Decimal().Positive().Build(),
			spreadsheet.Field("width").Required().Decimal().Positive().Build(),
			spreadsheet.Field("height").Required().Decimal().Positive().Build(),
			spreadsheet.Field("low_stock_threshold").Int().Min(0).Build(),
		}
	case EntityMovements:
		return []spreadsheet.FieldRule{
			spreadsheet.Field("date").Required().Date().DateFormat(dateFormat).Build(),
			spreadsheet.Field("warehouse_code").Required().MaxLength(50).Build(),
			spreadsheet.Field("sku").Required().MaxLength(100).Build(),
			spreadsheet.Field("quantity").Required().Int().Positive().Build(),
			spreadsheet.Field("type").Required().OneOf("IN", "OUT").Build(),
			spreadsheet.Field("notes").MaxLength(2000).Build(),
		}
	case EntityIncomingStock:
		return []spreadsheet.FieldRule{
			spreadsheet.Field("sku").Required().MaxLength(100).Build(),
			spreadsheet.Field("warehouse_code").Required().MaxLength(50).Build(),
			spreadsheet.Field("quantity").Required().Int().Positive().Build(),
			spreadsheet.Field("expected_arrival_date").Required().Date().DateFormat(dateFormat).Build(),
			spreadsheet.Field("notes").MaxLength(2000).Build(),
		}
	case EntityProductionOrders:
		return []spreadsheet.FieldRule{
			spreadsheet.Field("sku").Required().MaxLength(100).Build(),
			spreadsheet.Field("order_number").Required().MaxLength(100).Build(),
			spreadsheet.Field("quantity").Required().Int().Positive().Build(),
		}
	}
	return nil
}

// templateExamples holds one sample row per importable entity
var templateExamples = map[Entity][]any{
	EntityProducts:         {"SKU-001", "X00ABC123", "Widget", 1.5, 10, 8, 4, 10},
	EntityMovements:        {"2026-01-15", "GA", "SKU-001", 20, "IN", ""},
	EntityIncomingStock:    {"SKU-001", "GA", 50, "2026-02-01", ""},
	EntityProductionOrders: {"SKU-001", "PO-2026-001", 100},
}

// Columns returns the header row of an importable entity in rule order
func Columns(entity Entity) []string {
	rules := Rules(entity, "")
	cols := make([]string, len(rules))
	for i, r := range rules {
		cols[i] = r.Column
	}
	return cols
}
