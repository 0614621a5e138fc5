package ledger

import (
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	accountID := uuid.New()

	t.Run("upfront payment sets paid and remaining", func(t *testing.T) {
		inv, err := NewInvoice(testTenantID, accountID, "S-100", InvoiceKindSale, InvoiceTermsCredit, iqd(100000), dec(30000))
		require.NoError(t, err)
		assertDecimal(t, 30000, inv.PaidAmount)
		assertDecimal(t, 70000, inv.RemainingAmount)
		assert.Equal(t, InvoiceStatusPartial, inv.Status())
		assert.NoError(t, inv.CheckInvariant())
	})

	t.Run("statuses", func(t *testing.T) {
		unpaid, err := NewInvoice(testTenantID, accountID, "S-1", InvoiceKindSale, InvoiceTermsCredit, iqd(100), dec(0))
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusUnpaid, unpaid.Status())

		paid, err := NewInvoice(testTenantID, accountID, "S-2", InvoiceKindPurchase, InvoiceTermsCash, iqd(100), dec(100))
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPaid, paid.Status())
	})

	t.Run("rejects bad amounts", func(t *testing.T) {
		_, err := NewInvoice(testTenantID, accountID, "S-3", InvoiceKindSale, InvoiceTermsCredit, iqd(0), dec(0))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)

		_, err = NewInvoice(testTenantID, accountID, "S-4", InvoiceKindSale, InvoiceTermsCredit, iqd(100), dec(101))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)

		_, err = NewInvoice(testTenantID, accountID, "S-5", InvoiceKindSale, InvoiceTermsCredit, iqd(100), dec(-1))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("rejects bad kind and terms", func(t *testing.T) {
		_, err := NewInvoice(testTenantID, accountID, "S-6", InvoiceKind("quote"), InvoiceTermsCredit, iqd(100), dec(0))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewInvoice(testTenantID, accountID, "S-7", InvoiceKindSale, InvoiceTerms("later"), iqd(100), dec(0))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestInvoiceApplyPayment(t *testing.T) {
	account := newCustomer(t)

	t.Run("partial payment", func(t *testing.T) {
		inv := newInvoiceWithRemaining(t, account, 100000)
		reduction, leftover, err := inv.ApplyPayment(dec(60000))
		require.NoError(t, err)
		assertDecimal(t, 60000, reduction)
		assert.True(t, leftover.IsZero())
		assertDecimal(t, 40000, inv.RemainingAmount)
		assert.NoError(t, inv.CheckInvariant())
	})

	t.Run("overpayment returns leftover", func(t *testing.T) {
		inv := newInvoiceWithRemaining(t, account, 20000)
		reduction, leftover, err := inv.ApplyPayment(dec(35000))
		require.NoError(t, err)
		assertDecimal(t, 20000, reduction)
		assertDecimal(t, 15000, leftover)
		assert.Equal(t, InvoiceStatusPaid, inv.Status())
		assert.NoError(t, inv.CheckInvariant())
	})

	t.Run("paying a settled invoice is a pure overpayment", func(t *testing.T) {
		inv := newInvoiceWithRemaining(t, account, 0)
		reduction, leftover, err := inv.ApplyPayment(dec(500))
		require.NoError(t, err)
		assert.True(t, reduction.IsZero())
		assertDecimal(t, 500, leftover)
	})

	t.Run("non-positive amount is rejected before mutation", func(t *testing.T) {
		inv := newInvoiceWithRemaining(t, account, 100)
		_, _, err := inv.ApplyPayment(dec(0))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		assertDecimal(t, 100, inv.RemainingAmount)
	})

	t.Run("too many decimals for currency", func(t *testing.T) {
		inv, err := NewInvoice(testTenantID, account.ID, "U-1", InvoiceKindSale, InvoiceTermsCredit,
			valueobject.MustMoney(10, valueobject.USD), dec(0))
		require.NoError(t, err)
		_, _, err = inv.ApplyPayment(decimalFromString(t, "1.005"))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})
}
