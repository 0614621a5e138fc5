package ledger

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Allocation is how one payment was split.
// AdvanceApplied + DebtReduction + ExcessAmount equals the raw amount.
type Allocation struct {
	Currency       valueobject.Currency
	AdvanceApplied decimal.Decimal
	DebtReduction  decimal.Decimal
	ExcessAmount   decimal.Decimal
	// DebtSettled is the account debt released with the invoice when debt is tracked.
	// It is bookkeeping on the parallel ledger and not part of the split.
	DebtSettled decimal.Decimal
}

// Total returns the sum of the three allocation buckets
func (a Allocation) Total() decimal.Decimal {
	return a.AdvanceApplied.Add(a.DebtReduction).Add(a.ExcessAmount)
}

// SettlementRequest is the input of Settle.
// Invoice nil means a pure advance top-up.
type SettlementRequest struct {
	Account         *Account
	Invoice         *Invoice
	Amount          valueobject.Money
	ApplyAdvance    bool
	SyncAccountDebt bool
}

// Settle allocates a raw payment in a fixed order:
//  1. existing advance, bounded by the advance, the invoice remainder and the payment
//  2. the rest of the payment against the invoice remainder
//  3. whatever is left becomes new advance credit
//
// The split is computed before anything is mutated, so a rejected settlement
// leaves the account and invoice unchanged.
func Settle(req SettlementRequest) (Allocation, error) {
	c := req.Amount.Currency()
	if err := req.Amount.ValidatePositive(); err != nil {
		return Allocation{}, err
	}
	if req.Account == nil && req.Invoice == nil {
		return Allocation{}, shared.NewDomainError(shared.CodeInvalidInput, "Settlement needs an account or an invoice")
	}
	if req.Invoice != nil {
		if req.Invoice.Currency != c {
			return Allocation{}, shared.NewDomainError(shared.CodeCurrencyMismatch,
				fmt.Sprintf("payment in %s cannot settle invoice in %s", c, req.Invoice.Currency))
		}
		if req.Account != nil && req.Invoice.AccountID != req.Account.ID {
			return Allocation{}, shared.NewDomainError(shared.CodeInvalidInput, "Invoice belongs to a different account")
		}
	}

	alloc := plan(req)
	if alloc.ExcessAmount.IsPositive() && req.Account != nil && !req.Account.SupportsAdvance {
		return Allocation{}, ErrAdvanceNotSupported.WithCause(
			fmt.Errorf("payment exceeds the amount owed by %s %s", alloc.ExcessAmount.String(), c))
	}

	amount := req.Amount.Amount()
	remaining := amount

	if alloc.AdvanceApplied.IsPositive() {
		if err := req.Account.DecreaseAdvance(c, alloc.AdvanceApplied, "settlement:advance_applied"); err != nil {
			return Allocation{}, err
		}
		if err := req.Invoice.applyAdvance(alloc.AdvanceApplied); err != nil {
			return Allocation{}, err
		}
		remaining = remaining.Sub(alloc.AdvanceApplied)
	}

	excess := remaining
	debtReduction := decimal.Zero
	if req.Invoice != nil && remaining.IsPositive() {
		var err error
		debtReduction, excess, err = req.Invoice.ApplyPayment(remaining)
		if err != nil {
			return Allocation{}, err
		}
	}
	alloc.DebtReduction = debtReduction
	alloc.ExcessAmount = excess

	if excess.IsPositive() && req.Account != nil {
		if err := req.Account.IncreaseAdvance(c, excess, "settlement:excess"); err != nil {
			return Allocation{}, err
		}
	}

	if req.SyncAccountDebt && req.Account != nil && req.Invoice != nil && req.Invoice.DebtTracked {
		settled := decimal.Min(alloc.AdvanceApplied.Add(alloc.DebtReduction), req.Account.DebtBalance(c))
		if settled.IsPositive() {
			if err := req.Account.DecreaseDebt(c, settled, "settlement:invoice_paid"); err != nil {
				return Allocation{}, err
			}
			alloc.DebtSettled = settled
		}
	}

	if req.Invoice != nil {
		if err := req.Invoice.CheckInvariant(); err != nil {
			return Allocation{}, err
		}
		if req.Invoice.Status() == InvoiceStatusPaid && alloc.DebtReduction.Add(alloc.AdvanceApplied).IsPositive() {
			req.Invoice.AddDomainEvent(NewInvoiceSettledEvent(req.Invoice))
		}
	}
	if !alloc.Total().Equal(amount) {
		return Allocation{}, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("allocation %s does not reconcile with payment %s", alloc.Total().String(), amount.String()))
	}
	return alloc, nil
}

// plan computes the split without touching state
func plan(req SettlementRequest) Allocation {
	c := req.Amount.Currency()
	amount := req.Amount.Amount()
	alloc := Allocation{
		Currency:       c,
		AdvanceApplied: decimal.Zero,
		DebtReduction:  decimal.Zero,
		ExcessAmount:   decimal.Zero,
		DebtSettled:    decimal.Zero,
	}

	if req.Invoice == nil {
		alloc.ExcessAmount = amount
		return alloc
	}

	remainder := req.Invoice.RemainingAmount
	if req.ApplyAdvance && req.Account != nil && req.Account.SupportsAdvance {
		available := req.Account.AdvanceBalance(c)
		if available.IsPositive() {
			alloc.AdvanceApplied = decimal.Min(available, remainder, amount)
		}
	}

	rest := amount.Sub(alloc.AdvanceApplied)
	alloc.DebtReduction = decimal.Min(rest, remainder.Sub(alloc.AdvanceApplied))
	alloc.ExcessAmount = rest.Sub(alloc.DebtReduction)
	return alloc
}

// ReversePayment undoes a completed payment: excess credit is withdrawn,
// consumed advance is restored, the invoice remainder grows back and any
// released account debt is accrued again. status is cancelled or refunded.
func ReversePayment(p *PaymentRecord, account *Account, invoice *Invoice, status PaymentStatus, reason string) error {
	if status != PaymentStatusCancelled && status != PaymentStatusRefunded {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("cannot reverse a payment into status %q", status))
	}
	if p.Status != PaymentStatusCompleted {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("only completed payments can be reversed, payment is %s", p.Status))
	}
	if account == nil || account.ID != p.AccountID {
		return shared.NewDomainError(shared.CodeInvalidInput, "Payment belongs to a different account")
	}
	if p.InvoiceID != nil && (invoice == nil || invoice.ID != *p.InvoiceID) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Payment invoice was not supplied")
	}
	c := p.Currency
	if p.ExcessAmount.IsPositive() && account.AdvanceBalance(c).LessThan(p.ExcessAmount) {
		return shared.NewDomainError(shared.CodeInsufficientBalance,
			fmt.Sprintf("credit of %s %s from this payment has already been used", p.ExcessAmount.String(), c))
	}

	if p.ExcessAmount.IsPositive() {
		if err := account.DecreaseAdvance(c, p.ExcessAmount, "reversal:excess"); err != nil {
			return err
		}
	}
	if p.AdvanceUsed.IsPositive() {
		if err := account.IncreaseAdvance(c, p.AdvanceUsed, "reversal:advance_restored"); err != nil {
			return err
		}
	}
	if invoice != nil {
		if err := invoice.reversePayment(p.AdvanceUsed.Add(p.DebtReduction)); err != nil {
			return err
		}
		if err := invoice.CheckInvariant(); err != nil {
			return err
		}
	}
	if p.DebtSettled.IsPositive() {
		if err := account.IncreaseDebt(c, p.DebtSettled, "reversal:debt_restored"); err != nil {
			return err
		}
	}
	return p.markReversed(status, reason)
}
