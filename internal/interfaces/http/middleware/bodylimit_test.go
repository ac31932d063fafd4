package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitedRouter reads the whole body and answers with its length, so a
// MaxBytesReader cut shows up as a 400
func limitedRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	read := func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	}
	router.POST("/api/v1/movements", read)
	router.POST("/api/v1/import/:entity", read)
	router.GET("/api/v1/export/:entity", read)
	return router
}

func TestBodyLimit(t *testing.T) {
	movement := `{"product_id":"7f8c","warehouse_id":"2a1b","type":"IN","quantity":4}`

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		length   int64
		expected int
	}{
		{"json body within limit", http.MethodPost, "/api/v1/movements", movement, int64(len(movement)), http.StatusOK},
		{"declared upload over limit", http.MethodPost, "/api/v1/import/products", strings.Repeat("x", 300), 300, http.StatusRequestEntityTooLarge},
		{"export without body", http.MethodGet, "/api/v1/export/movements", "", 0, http.StatusOK},
		{"streamed upload over limit", http.MethodPost, "/api/v1/import/movements", strings.Repeat("x", 300), -1, http.StatusBadRequest},
		{"streamed body within limit", http.MethodPost, "/api/v1/movements", movement, -1, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.ContentLength = tt.length
			w := httptest.NewRecorder()
			limitedRouter(128).ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestBodyLimit_ErrorCarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/products", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set(RequestIDHeader, "upload-9")
	w := httptest.NewRecorder()
	limitedRouter(16).ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
	assert.Equal(t, "upload-9", resp.Error.RequestID)
}

func TestBodyLimitWithConfig_UploadsGetTheirOwnLimit(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), BodyLimitWithConfig(BodyLimitConfig{
		MaxBytes:           64,
		UploadMaxBytes:     1024,
		UploadPathPrefixes: []string{"/api/v1/import/"},
	}))
	read := func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	}
	router.POST("/api/v1/movements", read)
	router.POST("/api/v1/import/:entity", read)

	tests := []struct {
		name     string
		path     string
		size     int
		expected int
	}{
		{"json body within the general limit", "/api/v1/movements", 32, http.StatusOK},
		{"json body above the general limit", "/api/v1/movements", 512, http.StatusRequestEntityTooLarge},
		{"upload above the general limit", "/api/v1/import/products", 512, http.StatusOK},
		{"upload above the upload limit", "/api/v1/import/products", 2048, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(strings.Repeat("x", tt.size)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
