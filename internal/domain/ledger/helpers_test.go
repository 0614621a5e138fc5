package ledger

import (
	"testing"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func iqd(v int64) valueobject.Money {
	return valueobject.MustMoney(v, valueobject.IQD)
}

func newCustomer(t *testing.T) *Account {
	t.Helper()
	a, err := NewAccount(testTenantID, "C-001", "Test Customer", AccountKindCustomer, nil)
	require.NoError(t, err)
	return a
}

func newSupplier(t *testing.T) *Account {
	t.Helper()
	a, err := NewAccount(testTenantID, "S-001", "Test Supplier", AccountKindSupplier, nil)
	require.NoError(t, err)
	return a
}

// newInvoiceWithRemaining creates an IQD sale whose remainder equals remaining
func newInvoiceWithRemaining(t *testing.T, account *Account, remaining int64) *Invoice {
	t.Helper()
	paid := int64(1000)
	inv, err := NewInvoice(testTenantID, account.ID, "INV-1", InvoiceKindSale, InvoiceTermsCredit,
		iqd(remaining+paid), dec(paid))
	require.NoError(t, err)
	require.True(t, inv.RemainingAmount.Equal(dec(remaining)))
	return inv
}

func assertDecimal(t *testing.T, expected int64, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, actual.Equal(dec(expected)), "expected %d, got %s %v", expected, actual.String(), msgAndArgs)
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
