package shared

import "errors"

// Error codes shared across the ledger
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidState           = "INVALID_STATE"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
	CodeCurrencyMismatch       = "CURRENCY_MISMATCH"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeUnauthorized           = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so
// errors.Is(err, shared.ErrInsufficientBalance) matches any message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error carrying cause
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, cause: cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInvalidAmount          = NewDomainError(CodeInvalidAmount, "Amount must be positive")
	ErrInsufficientBalance    = NewDomainError(CodeInsufficientBalance, "Insufficient balance available")
	ErrCurrencyMismatch       = NewDomainError(CodeCurrencyMismatch, "Currency does not match")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
)

// ErrorCode extracts the DomainError code from err, or "" when err is not a domain error
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsConcurrentModification reports whether err signals a lost-update conflict
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
