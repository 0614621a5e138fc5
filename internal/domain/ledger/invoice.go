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

// InvoiceKind is the business document behind an invoice
type InvoiceKind string

const (
	InvoiceKindSale     InvoiceKind = "sale"
	InvoiceKindPurchase InvoiceKind = "purchase"
)

// InvoiceTerms is informational and does not change settlement math
type InvoiceTerms string

const (
	InvoiceTermsCash   InvoiceTerms = "cash"
	InvoiceTermsCredit InvoiceTerms = "credit"
)

// InvoiceStatus is derived from paid and remaining amounts
type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// IsValid reports whether s is a known status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPartial, InvoiceStatusPaid:
		return true
	}
	return false
}

// Invoice is a debt-bearing sale or purchase.
// PaidAmount + RemainingAmount == TotalAmount holds after every mutation.
type Invoice struct {
	shared.TenantAggregateRoot
	AccountID       uuid.UUID
	Number          string
	Kind            InvoiceKind
	Terms           InvoiceTerms
	Currency        valueobject.Currency
	TotalAmount     decimal.Decimal
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	// DebtTracked is set when the invoice remainder was accrued onto the account debt
	DebtTracked bool
	IssuedAt    time.Time
}

// NewInvoice creates an invoice with paid = upfront and remaining = total - upfront
func NewInvoice(
	tenantID, accountID uuid.UUID,
	number string,
	kind InvoiceKind,
	terms InvoiceTerms,
	total valueobject.Money,
	upfront decimal.Decimal,
) (*Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" || len(number) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invoice number must be 1-50 characters")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invoice requires an account")
	}
	if kind != InvoiceKindSale && kind != InvoiceKindPurchase {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invoice kind must be sale or purchase")
	}
	if terms != InvoiceTermsCash && terms != InvoiceTermsCredit {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invoice terms must be cash or credit")
	}
	if err := total.ValidatePositive(); err != nil {
		return nil, err
	}
	if upfront.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Upfront payment cannot be negative")
	}
	if upfront.GreaterThan(total.Amount()) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Upfront payment cannot exceed the invoice total")
	}
	if upfront.IsPositive() {
		if err := valueobject.ValidateAmount(upfront, total.Currency()); err != nil {
			return nil, err
		}
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AccountID:           accountID,
		Number:              number,
		Kind:                kind,
		Terms:               terms,
		Currency:            total.Currency(),
		TotalAmount:         total.Amount(),
		PaidAmount:          upfront,
		RemainingAmount:     total.Amount().Sub(upfront),
		IssuedAt:            time.Now(),
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Status derives unpaid, partial or paid from the amounts
func (inv *Invoice) Status() InvoiceStatus {
	switch {
	case !inv.RemainingAmount.IsPositive():
		return InvoiceStatusPaid
	case inv.PaidAmount.IsZero():
		return InvoiceStatusUnpaid
	default:
		return InvoiceStatusPartial
	}
}

// ApplyPayment reduces the remainder by at most amount.
// It returns the part that reduced debt and the leftover the caller must place.
// Paying an already settled invoice is not an error: everything comes back as leftover.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) (debtReduction, leftover decimal.Decimal, err error) {
	if err := valueobject.ValidateAmount(amount, inv.Currency); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	debtReduction = decimal.Min(amount, inv.RemainingAmount)
	leftover = amount.Sub(debtReduction)
	if debtReduction.IsPositive() {
		inv.settle(debtReduction)
	}
	return debtReduction, leftover, nil
}

// applyAdvance moves amount from remaining to paid. Callers bound amount by the remainder.
func (inv *Invoice) applyAdvance(amount decimal.Decimal) error {
	if amount.GreaterThan(inv.RemainingAmount) {
		return shared.NewDomainError(shared.CodeInvalidAmount,
			fmt.Sprintf("advance %s exceeds invoice remainder %s", amount.String(), inv.RemainingAmount.String()))
	}
	inv.settle(amount)
	return nil
}

func (inv *Invoice) settle(amount decimal.Decimal) {
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.RemainingAmount = inv.RemainingAmount.Sub(amount)
	inv.Touch()
	inv.AddDomainEvent(NewInvoicePaymentAppliedEvent(inv, amount))
}

// reversePayment moves amount back from paid to remaining
func (inv *Invoice) reversePayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	if amount.GreaterThan(inv.PaidAmount) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot reverse %s from paid amount %s", amount.String(), inv.PaidAmount.String()))
	}
	inv.PaidAmount = inv.PaidAmount.Sub(amount)
	inv.RemainingAmount = inv.RemainingAmount.Add(amount)
	inv.Touch()
	inv.AddDomainEvent(NewInvoicePaymentAppliedEvent(inv, amount.Neg()))
	return nil
}

// MarkDebtTracked records that the remainder has been accrued onto the account debt
func (inv *Invoice) MarkDebtTracked() {
	inv.DebtTracked = true
}

// CheckInvariant verifies paid + remaining == total with both non-negative
func (inv *Invoice) CheckInvariant() error {
	if inv.PaidAmount.IsNegative() || inv.RemainingAmount.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidState, "Invoice amounts cannot be negative")
	}
	if !inv.PaidAmount.Add(inv.RemainingAmount).Equal(inv.TotalAmount) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("invoice %s: paid %s + remaining %s != total %s",
				inv.Number, inv.PaidAmount.String(), inv.RemainingAmount.String(), inv.TotalAmount.String()))
	}
	return nil
}
