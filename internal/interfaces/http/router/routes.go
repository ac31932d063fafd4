package router

import (
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers holds every HTTP handler of the API
type Handlers struct {
	Warehouses       *handler.WarehouseHandler
	Products         *handler.ProductHandler
	Movements        *handler.MovementHandler
	Stock            *handler.StockHandler
	IncomingStock    *handler.IncomingStockHandler
	ProductionOrders *handler.ProductionOrderHandler
	Spreadsheets     *handler.SpreadsheetHandler
	System           *handler.SystemHandler
}

// RegisterAPI registers the ledger routes on r and the health check on the
// engine. fileLimit, when set, throttles the import and export routes.
func RegisterAPI(engine *gin.Engine, r *Router, h Handlers, fileLimit gin.HandlerFunc) {
	engine.GET("/health", h.System.Health)

	warehouses := NewDomainGroup("warehouses", "/warehouses")
	warehouses.GET("", h.Warehouses.List)
	warehouses.POST("", h.Warehouses.Create)
	warehouses.POST("/batch-delete", h.Warehouses.BatchDelete)
	warehouses.GET("/:id", h.Warehouses.GetByID)
	warehouses.PUT("/:id", h.Warehouses.Update)
	warehouses.DELETE("/:id", h.Warehouses.Delete)
	warehouses.POST("/:id/merge", h.Warehouses.Merge)

	products := NewDomainGroup("products", "/products")
	products.GET("", h.Products.List)
	products.POST("", h.Products.Create)
	products.GET("/search", h.Products.Search)
	products.POST("/batch-delete", h.Products.BatchDelete)
	products.GET("/:id", h.Products.GetByID)
	products.PUT("/:id", h.Products.Update)
	products.DELETE("/:id", h.Products.Delete)

	movements := NewDomainGroup("movements", "/movements")
	movements.GET("", h.Movements.List)
	movements.POST("", h.Movements.Record)
	movements.POST("/batch-delete", h.Movements.BatchDelete)
	movements.GET("/:id", h.Movements.GetByID)
	movements.DELETE("/:id", h.Movements.Delete)

	stock := NewDomainGroup("stock", "/stock")
	stock.GET("", h.Stock.Get)
	stock.GET("/historical", h.Stock.Historical)

	dashboard := NewDomainGroup("dashboard", "/dashboard")
	dashboard.GET("", h.Stock.Dashboard)

	incoming := NewDomainGroup("incoming-stock", "/incoming-stock")
	incoming.GET("", h.IncomingStock.List)
	incoming.POST("", h.IncomingStock.Create)
	incoming.POST("/batch-approve", h.IncomingStock.BatchApprove)
	incoming.POST("/batch-delete", h.IncomingStock.BatchDelete)
	incoming.GET("/:id", h.IncomingStock.GetByID)
	incoming.PUT("/:id", h.IncomingStock.Update)
	incoming.DELETE("/:id", h.IncomingStock.Delete)
	incoming.POST("/:id/approve", h.IncomingStock.Approve)

	orders := NewDomainGroup("production-orders", "/production-orders")
	orders.GET("", h.ProductionOrders.List)
	orders.POST("", h.ProductionOrders.Create)
	orders.POST("/batch-delete", h.ProductionOrders.BatchDelete)
	orders.POST("/adjust", h.ProductionOrders.Adjust)
	orders.GET("/:id", h.ProductionOrders.GetByID)
	orders.PUT("/:id", h.ProductionOrders.Update)
	orders.DELETE("/:id", h.ProductionOrders.Delete)

	imports := NewDomainGroup("import", "/import")
	imports.POST("/:entity", h.Spreadsheets.Import)
	imports.GET("/:entity/template", h.Spreadsheets.Template)

	exports := NewDomainGroup("export", "/export")
	exports.GET("/:entity", h.Spreadsheets.Export)

	if fileLimit != nil {
		imports.Use(fileLimit)
		exports.Use(fileLimit)
	}

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/health", h.System.Health)

	for _, g := range []*DomainGroup{warehouses, products, movements, stock, dashboard, incoming, orders, imports, exports, system} {
		r.Register(g)
	}
	r.Setup()
}
