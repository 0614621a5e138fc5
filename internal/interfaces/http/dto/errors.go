package dto

import (
	"net/http"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
)

// Transport error codes. Domain errors keep their own codes on the wire.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Domain codes re-exported for handlers and middleware
const (
	ErrCodeNotFound               = shared.CodeNotFound
	ErrCodeAlreadyExists          = shared.CodeAlreadyExists
	ErrCodeInvalidInput           = shared.CodeInvalidInput
	ErrCodeInvalidState           = shared.CodeInvalidState
	ErrCodeInvalidAmount          = shared.CodeInvalidAmount
	ErrCodeInsufficientBalance    = shared.CodeInsufficientBalance
	ErrCodeCurrencyMismatch       = shared.CodeCurrencyMismatch
	ErrCodeConcurrentModification = shared.CodeConcurrentModification
	ErrCodeUnauthorized           = shared.CodeUnauthorized
	ErrCodeAdvanceNotSupported    = ledger.CodeAdvanceNotSupported
	ErrCodeAlreadyReversed        = ledger.CodeAlreadyReversed
	ErrCodeDuplicateRequest       = ledger.CodeDuplicateRequest
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidAmount:    http.StatusBadRequest,
	ErrCodeCurrencyMismatch: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound: http.StatusNotFound,

	// Conflicts -> 409
	ErrCodeAlreadyExists:          http.StatusConflict,
	ErrCodeConcurrentModification: http.StatusConflict,
	ErrCodeAlreadyReversed:        http.StatusConflict,
	ErrCodeDuplicateRequest:       http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeAdvanceNotSupported: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
