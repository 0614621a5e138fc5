package valueobject

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CurrencyBalances holds one non-negative balance per tracked currency,
// indexed by currency slot rather than by name-built field lookup.
type CurrencyBalances struct {
	slots [currencySlots]decimal.Decimal
}

// NewCurrencyBalances builds balances from explicit per-currency values
func NewCurrencyBalances(iqd, usd decimal.Decimal) CurrencyBalances {
	var b CurrencyBalances
	b.slots[IQD.slot()] = iqd
	b.slots[USD.slot()] = usd
	return b
}

// Get returns the balance for c; unsupported currencies read as zero
func (b CurrencyBalances) Get(c Currency) decimal.Decimal {
	i := c.slot()
	if i < 0 {
		return decimal.Zero
	}
	return b.slots[i]
}

// Money returns the balance for c as Money
func (b CurrencyBalances) Money(c Currency) Money {
	return Money{amount: b.Get(c), currency: c}
}

// Increase adds a positive amount to the balance of c
func (b *CurrencyBalances) Increase(c Currency, amount decimal.Decimal) error {
	if err := ValidateAmount(amount, c); err != nil {
		return err
	}
	i := c.slot()
	b.slots[i] = b.slots[i].Add(amount)
	return nil
}

// Decrease subtracts a positive amount from the balance of c.
// It fails with INSUFFICIENT_BALANCE instead of going negative.
func (b *CurrencyBalances) Decrease(c Currency, amount decimal.Decimal) error {
	if err := ValidateAmount(amount, c); err != nil {
		return err
	}
	i := c.slot()
	if amount.GreaterThan(b.slots[i]) {
		return shared.NewDomainError(shared.CodeInsufficientBalance,
			fmt.Sprintf("cannot take %s %s from balance of %s", amount.String(), c, b.slots[i].String()))
	}
	b.slots[i] = b.slots[i].Sub(amount)
	return nil
}

// IsZero reports whether every currency balance is zero
func (b CurrencyBalances) IsZero() bool {
	for _, v := range b.slots {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Each calls fn for every tracked currency in ledger order
func (b CurrencyBalances) Each(fn func(c Currency, amount decimal.Decimal)) {
	for i, c := range supportedCurrencies {
		fn(c, b.slots[i])
	}
}
