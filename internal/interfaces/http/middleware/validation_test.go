package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shipmentInput struct {
	ProductID uuid.UUID   `json:"product_id" binding:"required"`
	Quantity  int         `json:"quantity" binding:"required,gt=0"`
	Status    string      `json:"status" binding:"omitempty,oneof=PENDING ARRIVED"`
	Notes     string      `json:"notes" binding:"max=5"`
	IDs       []uuid.UUID `json:"ids" binding:"omitempty,max=1"`
}

func bindRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var in shipmentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(in.Quantity))
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func detailFor(resp dto.Response, field string) string {
	if resp.Error == nil {
		return ""
	}
	for _, d := range resp.Error.Details {
		if d.Field == field {
			return d.Message
		}
	}
	return ""
}

func TestHandleValidationError_FieldErrors(t *testing.T) {
	router := bindRouter()

	w, resp := postJSON(router, `{"quantity": 0, "status": "LOST", "notes": "too long", "ids": ["`+uuid.NewString()+`","`+uuid.NewString()+`"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
	assert.Equal(t, "This field is required", detailFor(resp, "product_id"))
	assert.Equal(t, "This field is required", detailFor(resp, "quantity"))
	assert.Equal(t, "Must be one of: PENDING ARRIVED", detailFor(resp, "status"))
	assert.Equal(t, "Must be at most 5 characters", detailFor(resp, "notes"))
	assert.Equal(t, "Must contain at most 1 items", detailFor(resp, "ids"))
}

func TestHandleValidationError_NegativeQuantity(t *testing.T) {
	router := bindRouter()

	w, resp := postJSON(router, `{"product_id": "`+uuid.NewString()+`", "quantity": -3}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Must be greater than 0", detailFor(resp, "quantity"))
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	router := bindRouter()

	w, resp := postJSON(router, `{"quantity": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, []string{dto.ErrCodeInvalidJSON, dto.ErrCodeBadRequest}, resp.Error.Code)

	w, resp = postJSON(router, `{"product_id": "`+uuid.NewString()+`", "quantity": "seven"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "Must be of type int", detailFor(resp, "quantity"))
}

func TestHandleValidationError_Valid(t *testing.T) {
	router := bindRouter()

	w, resp := postJSON(router, `{"product_id": "`+uuid.NewString()+`", "quantity": 7, "status": "PENDING"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.EqualValues(t, 7, resp.Data)
}
