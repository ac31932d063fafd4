package handler

import (
	"bytes"
	"fmt"
	"net/http"

	importapp "github.com/erp/stockledger/internal/application/import"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/spreadsheet"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SpreadsheetHandler handles XLSX/CSV imports, import templates and exports
type SpreadsheetHandler struct {
	BaseHandler
	importService *importapp.ImportService
	exportService *importapp.ExportService
	maxUpload     int64
}

// NewSpreadsheetHandler creates a new SpreadsheetHandler. Uploads larger than
// maxUpload bytes are refused.
func NewSpreadsheetHandler(importService *importapp.ImportService, exportService *importapp.ExportService, maxUpload int64) *SpreadsheetHandler {
	return &SpreadsheetHandler{
		importService: importService,
		exportService: exportService,
		maxUpload:     maxUpload,
	}
}

// Import handles POST /import/:entity with the file in the "file" form field
// @ID           importSpreadsheet
// @Summary      Import a spreadsheet
// @Description  Import rows from an XLSX or CSV file. Rows that fail validation are reported and skipped.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        entity path string true "Entity to import" Enums(products, warehouses, movements, incoming-stock, production-orders)
// @Param        file formData file true "XLSX or CSV file"
// @Success      200 {object} APIResponse[importapp.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /import/{entity} [post]
func (h *SpreadsheetHandler) Import(c *gin.Context) {
	entity, ok := h.entity(c)
	if !ok {
		return
	}
	if !entity.Importable() {
		h.HandleError(c, importapp.ErrUnsupportedEntity)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("File exceeds the maximum size of %d bytes", h.maxUpload))
		return
	}

	result, err := h.importService.Import(c.Request.Context(), entity, header.Filename, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Template handles GET /import/:entity/template
// @ID           importTemplate
// @Summary      Download an import template
// @Description  An XLSX file with the header row of the entity
// @Tags         import
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        entity path string true "Entity to import" Enums(products, warehouses, movements, incoming-stock, production-orders)
// @Success      200 {file} binary "XLSX workbook"
// @Failure      400 {object} ErrorResponse
// @Router       /import/{entity}/template [get]
func (h *SpreadsheetHandler) Template(c *gin.Context) {
	entity, ok := h.entity(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exportService.Template(entity, &buf); err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, importapp.TemplateFilename(entity), buf.Bytes())
}

// Export handles GET /export/:entity. historical-stock takes an optional
// date parameter.
// @ID           exportSpreadsheet
// @Summary      Export an entity
// @Description  Export an entity as XLSX. historical-stock takes an optional date.
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        entity path string true "Entity to export" Enums(products, warehouses, movements, incoming-stock, production-orders, historical-stock)
// @Param        date query string false "Day (YYYY-MM-DD) for historical-stock"
// @Success      200 {file} binary "XLSX workbook"
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /export/{entity} [get]
func (h *SpreadsheetHandler) Export(c *gin.Context) {
	entity, ok := h.entity(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exportService.Export(c.Request.Context(), entity, c.Query("date"), &buf); err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, importapp.ExportFilename(entity, shared.Today()), buf.Bytes())
}

func (h *SpreadsheetHandler) entity(c *gin.Context) (importapp.Entity, bool) {
	entity, err := importapp.ParseEntity(c.Param("entity"))
	if err != nil {
		h.HandleError(c, err)
		return "", false
	}
	return entity, true
}

func (h *SpreadsheetHandler) attachment(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, spreadsheet.ContentTypeXLSX, body)
}
