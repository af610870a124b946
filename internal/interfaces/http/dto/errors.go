package dto

import (
	"net/http"

	"github.com/backoffice/ledger/internal/domain/billing"
)

// Error codes returned in ErrorInfo.Code. Domain codes pass through unchanged.
const (
	ErrCodeValidation          = billing.CodeValidation
	ErrCodeNotFound            = billing.CodeNotFound
	ErrCodeConcurrencyConflict = billing.CodeConcurrencyConflict
	ErrCodeInvariantViolation  = billing.CodeInvariantViolation
	ErrCodeStore               = billing.CodeStore
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvariantViolation:  http.StatusUnprocessableEntity,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeStore:               http.StatusServiceUnavailable,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
