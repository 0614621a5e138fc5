package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewPayment(t *testing.T) {
	tests := []struct {
		name      string
		debt      int64
		payment   int64
		isExcess  bool
		excess    int64
		cleared   int64
		remaining int64
	}{
		{"partial", 100000, 60000, false, 0, 60000, 40000},
		{"exact", 100000, 100000, false, 0, 100000, 0},
		{"excess", 20000, 35000, true, 15000, 20000, 0},
		{"no debt", 0, 500, true, 500, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PreviewPayment(dec(tt.debt), dec(tt.payment))
			assert.Equal(t, tt.isExcess, p.IsExcess)
			assertDecimal(t, tt.excess, p.ExcessAmount)
			assertDecimal(t, tt.cleared, p.DebtCleared)
			assertDecimal(t, tt.remaining, p.RemainingDebt)
		})
	}
}

// The preview must agree with Settle for an invoice whose remainder is the debt
func TestPreviewMatchesSettlement(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		debt := rng.Int63n(200000)
		payment := rng.Int63n(200000) + 1

		account := newCustomer(t)
		inv := newInvoiceWithRemaining(t, account, debt)

		alloc, err := Settle(SettlementRequest{Account: account, Invoice: inv, Amount: iqd(payment), ApplyAdvance: false})
		require.NoError(t, err)
		preview := PreviewPayment(dec(debt), dec(payment))

		assert.True(t, preview.DebtCleared.Equal(alloc.DebtReduction), "debt=%d payment=%d", debt, payment)
		assert.True(t, preview.ExcessAmount.Equal(alloc.ExcessAmount), "debt=%d payment=%d", debt, payment)
		assert.True(t, preview.RemainingDebt.Equal(inv.RemainingAmount), "debt=%d payment=%d", debt, payment)
		assert.Equal(t, alloc.ExcessAmount.IsPositive(), preview.IsExcess)
	}
}
