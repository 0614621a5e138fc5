package valueobject

import (
	"fmt"
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"golang.org/x/text/currency"
)

// Currency is one of the two currencies the ledger tracks in parallel.
// Amounts in different currencies are never converted into each other.
type Currency string

const (
	IQD Currency = "IQD" // Iraqi Dinar
	USD Currency = "USD" // US Dollar
)

// supportedCurrencies fixes the slot order used by CurrencyBalances
var supportedCurrencies = [currencySlots]Currency{IQD, USD}

const currencySlots = 2

// Currencies returns the supported currencies in ledger order
func Currencies() []Currency {
	out := make([]Currency, currencySlots)
	copy(out, supportedCurrencies[:])
	return out
}

// ParseCurrency parses an ISO 4217 code and rejects anything the ledger does not track
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, err := currency.ParseISO(code); err != nil {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown currency code %q", code))
	}
	c := Currency(code)
	if !c.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("currency %s is not supported", code))
	}
	return c, nil
}

// IsValid reports whether c is a tracked currency
func (c Currency) IsValid() bool {
	return c.slot() >= 0
}

// Scale returns the number of minor-unit digits for c (CLDR standard rounding)
func (c Currency) Scale() int32 {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

func (c Currency) String() string {
	return string(c)
}

func (c Currency) slot() int {
	for i, sc := range supportedCurrencies {
		if sc == c {
			return i
		}
	}
	return -1
}
