package importapp

import (
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/spreadsheet"
)

// Entity names an importable or exportable data set
type Entity string

const (
	EntityProducts         Entity = "products"
	EntityMovements        Entity = "movements"
	EntityIncomingStock    Entity = "incoming-stock"
	EntityProductionOrders Entity = "production-orders"
	EntityHistoricalStock  Entity = "historical-stock"
)

// ErrUnsupportedEntity is returned for an unknown entity name
var ErrUnsupportedEntity = shared.NewDomainError("UNSUPPORTED_ENTITY", "Unsupported import/export entity")

// ParseEntity parses an entity name from a URL segment
func ParseEntity(s string) (Entity, error) {
	switch e := Entity(strings.ToLower(strings.TrimSpace(s))); e {
	case EntityProducts, EntityMovements, EntityIncomingStock, EntityProductionOrders, EntityHistoricalStock:
		return e, nil
	}
	return "", ErrUnsupportedEntity
}

// Importable reports whether the entity can be imported
func (e Entity) Importable() bool {
	return e != EntityHistoricalStock
}

// RowWarning is a soft warning raised while importing one row
type RowWarning struct {
	Row  int    `json:"row"`
	Code string `json:"code"`
}

// ImportResult summarizes an import
type ImportResult struct {
	Entity      Entity                 `json:"entity"`
	TotalRows   int                    `json:"total_rows"`
	Succeeded   int                    `json:"succeeded"`
	Failed      int                    `json:"failed"`
	Errors      []spreadsheet.RowError `json:"errors"`
	Warnings    []RowWarning           `json:"warnings"`
	IsTruncated bool                   `json:"is_truncated,omitempty"`
	TotalErrors int                    `json:"total_errors,omitempty"`
}
