package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Errors raised by the domain keep their own
// codes (NOT_FOUND, PRODUCT_IN_USE, ...) in responses.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeInvalidID       = "ERR_INVALID_ID"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeUnavailable     = "ERR_UNAVAILABLE"
	ErrCodeForbidden       = "ERR_FORBIDDEN"
	ErrCodeRouteNotFound   = "ERR_ROUTE_NOT_FOUND"
)

// Domain error codes with a fixed status
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInvalidState        = "INVALID_STATE_TRANSITION"
	CodeInUse               = "IN_USE"
	CodeLockTimeout         = "LOCK_TIMEOUT"
	CodeTooManyRows         = "TOO_MANY_ROWS"
	CodeMissingColumns      = "MISSING_COLUMNS"
	CodeUnknownColumn       = "UNKNOWN_WAREHOUSE_COLUMN"
	CodeUnsupportedEntity   = "UNSUPPORTED_ENTITY"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidID:       http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeRouteNotFound:   http.StatusNotFound,

	CodeNotFound:            http.StatusNotFound,
	CodeAlreadyExists:       http.StatusConflict,
	CodeConcurrencyConflict: http.StatusConflict,
	CodeInUse:               http.StatusConflict,
	CodeLockTimeout:         http.StatusConflict,
	CodeInvalidState:        http.StatusUnprocessableEntity,

	// Whole-file import failures
	CodeTooManyRows:       http.StatusBadRequest,
	CodeMissingColumns:    http.StatusBadRequest,
	CodeUnknownColumn:     http.StatusBadRequest,
	CodeUnsupportedEntity: http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status code for an error code. Codes not in
// ErrorCodeHTTPStatus are classified by naming convention: INVALID_* is a 400,
// DUPLICATE_* and *_IN_USE are 409 and *_NOT_FOUND is a 404. Anything else is
// a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "DUPLICATE_"), strings.HasSuffix(code, "_IN_USE"):
		return http.StatusConflict
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a client may retry the same request unchanged
func IsRetryable(code string) bool {
	return code == CodeLockTimeout || code == CodeConcurrencyConflict || code == ErrCodeUnavailable
}
