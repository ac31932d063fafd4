package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimitConfig holds the request size limits
type BodyLimitConfig struct {
	// MaxBytes applies to every request not matched by UploadPathPrefixes
	MaxBytes int64
	// UploadMaxBytes applies to requests under UploadPathPrefixes
	UploadMaxBytes     int64
	UploadPathPrefixes []string
}

// BodyLimit rejects requests whose declared body exceeds maxBytes and caps
// the bytes read from streamed bodies
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return BodyLimitWithConfig(BodyLimitConfig{MaxBytes: maxBytes})
}

// BodyLimitWithConfig is BodyLimit with a separate, usually larger, limit for
// spreadsheet uploads
func BodyLimitWithConfig(cfg BodyLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		maxBytes := cfg.limitFor(c.Request.URL.Path)
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func (cfg BodyLimitConfig) limitFor(path string) int64 {
	if cfg.UploadMaxBytes <= 0 {
		return cfg.MaxBytes
	}
	for _, prefix := range cfg.UploadPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return cfg.UploadMaxBytes
		}
	}
	return cfg.MaxBytes
}
