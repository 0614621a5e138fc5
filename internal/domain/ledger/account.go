package ledger

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind distinguishes the counterparty behind an account
type AccountKind string

const (
	AccountKindCustomer AccountKind = "customer"
	AccountKindSupplier AccountKind = "supplier"
)

// IsValid reports whether k is a known account kind
func (k AccountKind) IsValid() bool {
	return k == AccountKindCustomer || k == AccountKindSupplier
}

// BalanceKind names one of the two parallel ledgers an account carries
type BalanceKind string

const (
	BalanceDebt    BalanceKind = "debt"
	BalanceAdvance BalanceKind = "advance"
)

// IsValid reports whether b is a known ledger
func (b BalanceKind) IsValid() bool {
	return b == BalanceDebt || b == BalanceAdvance
}

// Account is the counterparty ledger for a customer or supplier.
// Debt is what the account owes the business; Advance is what the business
// owes the account. Both are kept per currency, both stay >= 0 and they are
// only netted by OffsetDebtWithAdvance.
type Account struct {
	shared.TenantAggregateRoot
	Code            string
	Name            string
	Kind            AccountKind
	SupportsAdvance bool
	Debt            valueobject.CurrencyBalances
	Advance         valueobject.CurrencyBalances
}

// NewAccount creates an account with zero balances in every currency.
// supportsAdvance defaults to true for customers and false for suppliers.
func NewAccount(tenantID uuid.UUID, code, name string, kind AccountKind, supportsAdvance *bool) (*Account, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Account code must be 1-50 characters")
	}
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Account name must be 1-200 characters")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Account kind must be customer or supplier")
	}

	advance := kind == AccountKindCustomer
	if supportsAdvance != nil {
		advance = *supportsAdvance
	}

	a := &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Kind:                kind,
		SupportsAdvance:     advance,
	}
	a.AddDomainEvent(NewAccountCreatedEvent(a))
	return a, nil
}

// DebtBalance returns the debt owed in c
func (a *Account) DebtBalance(c valueobject.Currency) decimal.Decimal {
	return a.Debt.Get(c)
}

// AdvanceBalance returns the advance held in c
func (a *Account) AdvanceBalance(c valueobject.Currency) decimal.Decimal {
	return a.Advance.Get(c)
}

// NetBalance is debt minus advance in c. Positive means the account owes the business.
// It is a view only; the two balances are never merged in storage.
func (a *Account) NetBalance(c valueobject.Currency) decimal.Decimal {
	return a.Debt.Get(c).Sub(a.Advance.Get(c))
}

// Balance returns the named ledger balance in c
func (a *Account) Balance(kind BalanceKind, c valueobject.Currency) decimal.Decimal {
	if kind == BalanceAdvance {
		return a.AdvanceBalance(c)
	}
	return a.DebtBalance(c)
}

// IncreaseDebt records that the account owes amount more in c
func (a *Account) IncreaseDebt(c valueobject.Currency, amount decimal.Decimal, reason string) error {
	return a.mutate(BalanceDebt, c, amount, reason, true)
}

// DecreaseDebt lowers the debt in c, failing with INSUFFICIENT_BALANCE rather than going negative
func (a *Account) DecreaseDebt(c valueobject.Currency, amount decimal.Decimal, reason string) error {
	return a.mutate(BalanceDebt, c, amount, reason, false)
}

// IncreaseAdvance adds credit the business owes the account
func (a *Account) IncreaseAdvance(c valueobject.Currency, amount decimal.Decimal, reason string) error {
	if !a.SupportsAdvance {
		return ErrAdvanceNotSupported
	}
	return a.mutate(BalanceAdvance, c, amount, reason, true)
}

// DecreaseAdvance consumes credit, failing with INSUFFICIENT_BALANCE rather than going negative
func (a *Account) DecreaseAdvance(c valueobject.Currency, amount decimal.Decimal, reason string) error {
	if !a.SupportsAdvance {
		return ErrAdvanceNotSupported
	}
	return a.mutate(BalanceAdvance, c, amount, reason, false)
}

func (a *Account) mutate(kind BalanceKind, c valueobject.Currency, amount decimal.Decimal, reason string, increase bool) error {
	balances := &a.Debt
	if kind == BalanceAdvance {
		balances = &a.Advance
	}

	before := balances.Get(c)
	var err error
	if increase {
		err = balances.Increase(c, amount)
	} else {
		err = balances.Decrease(c, amount)
	}
	if err != nil {
		return err
	}

	a.Touch()
	a.AddDomainEvent(NewAccountBalanceChangedEvent(a, kind, c, before, balances.Get(c), reason))
	return nil
}
