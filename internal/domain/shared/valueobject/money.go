package valueobject

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money is an immutable amount tagged with a ledger currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money after checking the currency is tracked
func NewMoney(amount decimal.Decimal, c Currency) (Money, error) {
	if !c.IsValid() {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("currency %q is not supported", c))
	}
	return Money{amount: amount, currency: c}, nil
}

// MustMoney is NewMoney for constants and tests
func MustMoney(amount int64, c Currency) Money {
	m, err := NewMoney(decimal.NewFromInt(amount), c)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Currency() Currency {
	return m.currency
}

// ValidatePositive checks that m is strictly positive and carries no more
// fractional digits than its currency allows.
func (m Money) ValidatePositive() error {
	return ValidateAmount(m.amount, m.currency)
}

// ValidateAmount is the INVALID_AMOUNT check used by every mutating ledger operation
func ValidateAmount(amount decimal.Decimal, c Currency) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("amount must be positive, got %s", amount.String()))
	}
	if !c.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("currency %q is not supported", c))
	}
	if scale := c.Scale(); !amount.Equal(amount.Truncate(scale)) {
		return shared.NewDomainError(shared.CodeInvalidAmount,
			fmt.Sprintf("%s amounts allow at most %d decimal places, got %s", c, scale, amount.String()))
	}
	return nil
}

// String returns "<amount> <code>" with the currency's minor-unit precision
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.Scale()), m.currency)
}

// Format renders m for display in the given language, e.g. "USD 1,250.50"
func (m Money) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	scale := int(m.currency.Scale())
	return p.Sprintf("%s %v", m.currency, number.Decimal(m.amount.InexactFloat64(), number.Scale(scale)))
}
