package dto

import "net/http"

// Error codes, formatted ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeReferenced   = "ERR_REFERENCED"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusy         = "ERR_BUSY"
	ErrCodeBackend      = "ERR_BACKEND"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeReferenced:   http.StatusConflict,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusy:         http.StatusConflict,
	ErrCodeBackend:      http.StatusBadGateway,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status for an error code, 422 for unknown
// domain codes
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}

// domainCodes maps domain error codes to their BFF codes
var domainCodes = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"INVALID_INPUT":     ErrCodeInvalidInput,
	"INVALID_STATE":     ErrCodeInvalidState,
	"UNAUTHORIZED":      ErrCodeUnauthorized,
	"REFERENCED":        ErrCodeReferenced,
	"DIALOG_BUSY":       ErrCodeBusy,
	"VALIDATION_ERRORS": ErrCodeValidation,
	"LOGIN_FAILED":      ErrCodeUnauthorized,
	"NOT_AUTHENTICATED": ErrCodeUnauthorized,
	"AVATAR_REQUIRED":   ErrCodeBadRequest,
}

// NormalizeErrorCode converts a domain error code to the BFF format; unknown
// codes are returned unchanged
func NormalizeErrorCode(code string) string {
	if c, ok := domainCodes[code]; ok {
		return c
	}
	return code
}
