package ledger

import (
	"testing"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetDebtWithAdvance(t *testing.T) {
	t.Run("nets the smaller balance off both", func(t *testing.T) {
		account := newCustomer(t)
		require.NoError(t, account.IncreaseDebt(valueobject.IQD, dec(40000), "seed"))
		require.NoError(t, account.IncreaseAdvance(valueobject.IQD, dec(25000), "seed"))

		result, err := OffsetDebtWithAdvance(account, valueobject.IQD, "", nil)
		require.NoError(t, err)
		assertDecimal(t, 25000, result.Applied)
		assertDecimal(t, 15000, account.DebtBalance(valueobject.IQD))
		assert.True(t, account.AdvanceBalance(valueobject.IQD).IsZero())

		require.Len(t, result.Entries, 2)
		for _, e := range result.Entries {
			assert.Equal(t, AdjustmentSourceOffset, e.Source)
			assert.Equal(t, AdjustmentSubtract, e.Type)
			assert.NoError(t, e.CheckSnapshot())
		}
		assert.Equal(t, BalanceAdvance, result.Entries[0].Ledger)
		assert.Equal(t, BalanceDebt, result.Entries[1].Ledger)
	})

	t.Run("second call returns zero", func(t *testing.T) {
		account := newCustomer(t)
		require.NoError(t, account.IncreaseDebt(valueobject.USD, dec(10), "seed"))
		require.NoError(t, account.IncreaseAdvance(valueobject.USD, dec(30), "seed"))

		first, err := OffsetDebtWithAdvance(account, valueobject.USD, "", nil)
		require.NoError(t, err)
		assertDecimal(t, 10, first.Applied)

		second, err := OffsetDebtWithAdvance(account, valueobject.USD, "", nil)
		require.NoError(t, err)
		assert.True(t, second.Applied.IsZero())
		assert.Empty(t, second.Entries)
		assertDecimal(t, 20, account.AdvanceBalance(valueobject.USD))
	})

	t.Run("other currency is untouched", func(t *testing.T) {
		account := newCustomer(t)
		require.NoError(t, account.IncreaseDebt(valueobject.USD, dec(10), "seed"))
		require.NoError(t, account.IncreaseAdvance(valueobject.IQD, dec(30), "seed"))

		result, err := OffsetDebtWithAdvance(account, valueobject.USD, "", nil)
		require.NoError(t, err)
		assert.True(t, result.Applied.IsZero())
		assertDecimal(t, 10, account.DebtBalance(valueobject.USD))
		assertDecimal(t, 30, account.AdvanceBalance(valueobject.IQD))
	})

	t.Run("account without advance is a no-op", func(t *testing.T) {
		supplier := newSupplier(t)
		require.NoError(t, supplier.IncreaseDebt(valueobject.IQD, dec(10), "seed"))
		result, err := OffsetDebtWithAdvance(supplier, valueobject.IQD, "", nil)
		require.NoError(t, err)
		assert.True(t, result.Applied.IsZero())
	})
}
