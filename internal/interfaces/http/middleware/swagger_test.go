package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swaggerRouter(cfg SwaggerConfig) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        SwaggerConfig
		remoteAddr string
		expected   int
		wantCode   string
	}{
		{"disabled endpoint is hidden", SwaggerConfig{Enabled: false}, "192.0.2.10:4000", http.StatusNotFound, dto.ErrCodeRouteNotFound},
		{"enabled without whitelist", SwaggerConfig{Enabled: true}, "192.0.2.10:4000", http.StatusOK, ""},
		{"exact ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.0.2.10"}}, "192.0.2.10:4000", http.StatusOK, ""},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, "10.20.30.40:4000", http.StatusOK, ""},
		{"outside whitelist", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8", "192.0.2.99"}}, "192.0.2.10:4000", http.StatusForbidden, dto.ErrCodeForbidden},
		{"malformed entries are ignored", SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip", "300.0.0.0/8"}}, "192.0.2.10:4000", http.StatusForbidden, dto.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			swaggerRouter(tt.cfg).ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
			if tt.wantCode == "" {
				assert.Equal(t, "docs", w.Body.String())
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
