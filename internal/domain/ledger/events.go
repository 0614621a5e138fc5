package ledger

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeAccount = "Account"
	AggregateTypeInvoice = "Invoice"
	AggregateTypePayment = "PaymentRecord"
)

// Event type constants
const (
	EventTypeAccountCreated        = "AccountCreated"
	EventTypeAccountBalanceChanged = "AccountBalanceChanged"
	EventTypeBalanceAdjusted       = "BalanceAdjusted"
	EventTypeDebtOffset            = "DebtOffset"
	EventTypeInvoiceCreated        = "InvoiceCreated"
	EventTypeInvoicePaymentApplied = "InvoicePaymentApplied"
	EventTypeInvoiceSettled        = "InvoiceSettled"
	EventTypePaymentRecorded       = "PaymentRecorded"
	EventTypePaymentReversed       = "PaymentReversed"
)

// AccountCreatedEvent is published when an account is opened
type AccountCreatedEvent struct {
	shared.BaseDomainEvent
	AccountID       uuid.UUID   `json:"account_id"`
	Code            string      `json:"code"`
	Kind            AccountKind `json:"kind"`
	SupportsAdvance bool        `json:"supports_advance"`
}

func NewAccountCreatedEvent(a *Account) *AccountCreatedEvent {
	return &AccountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountCreated, AggregateTypeAccount, a.ID, a.TenantID),
		AccountID:       a.ID,
		Code:            a.Code,
		Kind:            a.Kind,
		SupportsAdvance: a.SupportsAdvance,
	}
}

// AccountBalanceChangedEvent is published for every debt or advance mutation
type AccountBalanceChangedEvent struct {
	shared.BaseDomainEvent
	AccountID     uuid.UUID            `json:"account_id"`
	Ledger        BalanceKind          `json:"ledger"`
	Currency      valueobject.Currency `json:"currency"`
	BeforeBalance decimal.Decimal      `json:"before_balance"`
	AfterBalance  decimal.Decimal      `json:"after_balance"`
	Reason        string               `json:"reason"`
}

func NewAccountBalanceChangedEvent(a *Account, ledger BalanceKind, c valueobject.Currency, before, after decimal.Decimal, reason string) *AccountBalanceChangedEvent {
	return &AccountBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountBalanceChanged, AggregateTypeAccount, a.ID, a.TenantID),
		AccountID:       a.ID,
		Ledger:          ledger,
		Currency:        c,
		BeforeBalance:   before,
		AfterBalance:    after,
		Reason:          reason,
	}
}

// BalanceAdjustedEvent is published when an audit entry is appended
type BalanceAdjustedEvent struct {
	shared.BaseDomainEvent
	AdjustmentID  uuid.UUID            `json:"adjustment_id"`
	AccountID     uuid.UUID            `json:"account_id"`
	Ledger        BalanceKind          `json:"ledger"`
	Currency      valueobject.Currency `json:"currency"`
	Type          AdjustmentType       `json:"type"`
	Source        AdjustmentSource     `json:"source"`
	Amount        decimal.Decimal      `json:"amount"`
	BeforeBalance decimal.Decimal      `json:"before_balance"`
	AfterBalance  decimal.Decimal      `json:"after_balance"`
}

func NewBalanceAdjustedEvent(b *BalanceAdjustment) *BalanceAdjustedEvent {
	return &BalanceAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBalanceAdjusted, AggregateTypeAccount, b.AccountID, b.TenantID),
		AdjustmentID:    b.ID,
		AccountID:       b.AccountID,
		Ledger:          b.Ledger,
		Currency:        b.Currency,
		Type:            b.Type,
		Source:          b.Source,
		Amount:          b.Amount,
		BeforeBalance:   b.BeforeBalance,
		AfterBalance:    b.AfterBalance,
	}
}

// DebtOffsetEvent is published when advance is netted against debt
type DebtOffsetEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID            `json:"account_id"`
	Currency  valueobject.Currency `json:"currency"`
	Amount    decimal.Decimal      `json:"amount"`
}

func NewDebtOffsetEvent(a *Account, c valueobject.Currency, amount decimal.Decimal) *DebtOffsetEvent {
	return &DebtOffsetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtOffset, AggregateTypeAccount, a.ID, a.TenantID),
		AccountID:       a.ID,
		Currency:        c,
		Amount:          amount,
	}
}

// InvoiceCreatedEvent is published when an invoice is issued
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID            `json:"invoice_id"`
	AccountID   uuid.UUID            `json:"account_id"`
	Number      string               `json:"number"`
	Kind        InvoiceKind          `json:"kind"`
	Terms       InvoiceTerms         `json:"terms"`
	Currency    valueobject.Currency `json:"currency"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
	PaidAmount  decimal.Decimal      `json:"paid_amount"`
}

func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		AccountID:       inv.AccountID,
		Number:          inv.Number,
		Kind:            inv.Kind,
		Terms:           inv.Terms,
		Currency:        inv.Currency,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
	}
}

// InvoicePaymentAppliedEvent is published whenever paid/remaining move.
// A negative Amount means a reversal.
type InvoicePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          InvoiceStatus   `json:"status"`
}

func NewInvoicePaymentAppliedEvent(inv *Invoice, amount decimal.Decimal) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentApplied, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		Amount:          amount,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
		Status:          inv.Status(),
	}
}

// InvoiceSettledEvent is published when a payment clears the remainder
type InvoiceSettledEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID            `json:"invoice_id"`
	AccountID   uuid.UUID            `json:"account_id"`
	Currency    valueobject.Currency `json:"currency"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
}

func NewInvoiceSettledEvent(inv *Invoice) *InvoiceSettledEvent {
	return &InvoiceSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceSettled, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		AccountID:       inv.AccountID,
		Currency:        inv.Currency,
		TotalAmount:     inv.TotalAmount,
	}
}

// PaymentRecordedEvent is published for every committed settlement
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID            `json:"payment_id"`
	AccountID     uuid.UUID            `json:"account_id"`
	InvoiceID     *uuid.UUID           `json:"invoice_id,omitempty"`
	Currency      valueobject.Currency `json:"currency"`
	Method        PaymentMethod        `json:"method"`
	Amount        decimal.Decimal      `json:"amount"`
	AdvanceUsed   decimal.Decimal      `json:"advance_used"`
	DebtReduction decimal.Decimal      `json:"debt_reduction"`
	ExcessAmount  decimal.Decimal      `json:"excess_amount"`
}

func NewPaymentRecordedEvent(p *PaymentRecord) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		AccountID:       p.AccountID,
		InvoiceID:       p.InvoiceID,
		Currency:        p.Currency,
		Method:          p.Method,
		Amount:          p.Amount,
		AdvanceUsed:     p.AdvanceUsed,
		DebtReduction:   p.DebtReduction,
		ExcessAmount:    p.ExcessAmount,
	}
}

// PaymentReversedEvent is published when a payment is cancelled or refunded
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID     `json:"payment_id"`
	AccountID uuid.UUID     `json:"account_id"`
	Status    PaymentStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
}

func NewPaymentReversedEvent(p *PaymentRecord) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		AccountID:       p.AccountID,
		Status:          p.Status,
		Reason:          p.ReverseReason,
	}
}
