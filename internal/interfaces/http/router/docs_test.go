package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDocs(t *testing.T) {
	t.Run("serves the generated document", func(t *testing.T) {
		engine := gin.New()
		RegisterDocs(engine, middleware.SwaggerConfig{Enabled: true})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var doc struct {
			BasePath string                    `json:"basePath"`
			Paths    map[string]map[string]any `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "/api/v1", doc.BasePath)
		assert.Contains(t, doc.Paths["/incoming-stock"], "post")
		assert.Contains(t, doc.Paths["/production-orders/adjust"], "post")
		assert.Contains(t, doc.Paths["/import/{entity}"], "post")
	})

	t.Run("disabled documentation is not found", func(t *testing.T) {
		engine := gin.New()
		RegisterDocs(engine, middleware.SwaggerConfig{Enabled: false})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("clients outside the whitelist are refused", func(t *testing.T) {
		engine := gin.New()
		RegisterDocs(engine, middleware.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}})

		req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
