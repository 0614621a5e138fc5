package ledger

import "github.com/erp/ledger/internal/domain/shared"

// Ledger-specific error codes
const (
	CodeAdvanceNotSupported = "ADVANCE_NOT_SUPPORTED"
	CodeAlreadyReversed     = "ALREADY_REVERSED"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

var (
	ErrAdvanceNotSupported = shared.NewDomainError(CodeAdvanceNotSupported, "Account does not hold an advance balance")
	ErrAlreadyReversed     = shared.NewDomainError(CodeAlreadyReversed, "Entry has already been reversed")
	ErrDuplicateRequest    = shared.NewDomainError(CodeDuplicateRequest, "Request is already being processed")
)
