package router

import (
	_ "github.com/erp/stockledger/docs"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterDocs serves the Swagger UI and doc.json under /swagger, guarded by
// SwaggerProtection
func RegisterDocs(engine *gin.Engine, cfg middleware.SwaggerConfig) {
	engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg), ginSwagger.WrapHandler(swaggerFiles.Handler))
}
