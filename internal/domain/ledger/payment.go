package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the payer presented the money
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCardTerminal PaymentMethod = "card_terminal"
	PaymentMethodTransfer     PaymentMethod = "transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodAdvance      PaymentMethod = "advance"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid reports whether m is a known method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCardTerminal, PaymentMethodTransfer,
		PaymentMethodCheque, PaymentMethodAdvance, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentStatus is the lifecycle state of a payment record
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentRecord is the persisted outcome of one settlement.
// AdvanceUsed + DebtReduction + ExcessAmount == Amount.
type PaymentRecord struct {
	shared.TenantAggregateRoot
	AccountID      uuid.UUID
	InvoiceID      *uuid.UUID
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	Method         PaymentMethod
	Status         PaymentStatus
	AdvanceUsed    decimal.Decimal
	DebtReduction  decimal.Decimal
	ExcessAmount   decimal.Decimal
	DebtSettled    decimal.Decimal // account debt released alongside the invoice
	ApplyAdvance   bool
	IdempotencyKey string
	Reference      string
	Note           string
	PaidAt         time.Time
	ReversedAt     *time.Time
	ReverseReason  string
}

// NewPaymentRecord builds a completed record from a settlement allocation
func NewPaymentRecord(
	tenantID, accountID uuid.UUID,
	invoiceID *uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
	alloc Allocation,
) (*PaymentRecord, error) {
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown payment method %q", method))
	}
	if alloc.Currency != amount.Currency() {
		return nil, shared.ErrCurrencyMismatch
	}
	if !alloc.Total().Equal(amount.Amount()) {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("allocation %s does not reconcile with payment %s", alloc.Total().String(), amount.Amount().String()))
	}

	p := &PaymentRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AccountID:           accountID,
		InvoiceID:           invoiceID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		Method:              method,
		Status:              PaymentStatusCompleted,
		AdvanceUsed:         alloc.AdvanceApplied,
		DebtReduction:       alloc.DebtReduction,
		ExcessAmount:        alloc.ExcessAmount,
		DebtSettled:         alloc.DebtSettled,
		ApplyAdvance:        true,
		PaidAt:              time.Now(),
	}
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}

// WithReference sets an external reference (cheque number, transfer id)
func (p *PaymentRecord) WithReference(ref string) *PaymentRecord {
	p.Reference = strings.TrimSpace(ref)
	return p
}

// WithNote sets a free-form note
func (p *PaymentRecord) WithNote(note string) *PaymentRecord {
	p.Note = strings.TrimSpace(note)
	return p
}

// WithApplyAdvance records whether the settlement could consume advance
func (p *PaymentRecord) WithApplyAdvance(apply bool) *PaymentRecord {
	p.ApplyAdvance = apply
	return p
}

// WithIdempotencyKey binds the record to the client request key
func (p *PaymentRecord) WithIdempotencyKey(key string) *PaymentRecord {
	p.IdempotencyKey = strings.TrimSpace(key)
	return p
}

// Allocation returns the stored allocation split
func (p *PaymentRecord) Allocation() Allocation {
	return Allocation{
		Currency:       p.Currency,
		AdvanceApplied: p.AdvanceUsed,
		DebtReduction:  p.DebtReduction,
		ExcessAmount:   p.ExcessAmount,
		DebtSettled:    p.DebtSettled,
	}
}

// CheckIdentity verifies the reconciliation identity
func (p *PaymentRecord) CheckIdentity() error {
	if !p.Allocation().Total().Equal(p.Amount) {
		return shared.NewDomainError(shared.CodeInvalidState, "payment allocation does not reconcile with amount")
	}
	return nil
}

func (p *PaymentRecord) markReversed(status PaymentStatus, reason string) error {
	if p.Status != PaymentStatusCompleted {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("only completed payments can be reversed, payment is %s", p.Status))
	}
	now := time.Now()
	p.Status = status
	p.ReversedAt = &now
	p.ReverseReason = strings.TrimSpace(reason)
	p.Touch()
	p.AddDomainEvent(NewPaymentReversedEvent(p))
	return nil
}
