package ledger

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OffsetResult is the outcome of netting advance against debt
type OffsetResult struct {
	Currency valueobject.Currency
	Applied  decimal.Decimal
	// Entries holds the advance and debt audit entries; empty when nothing was netted
	Entries []*BalanceAdjustment
}

// OffsetDebtWithAdvance nets min(advance, debt) off both balances in one
// currency. Either balance being zero is a no-op, not an error, so calling
// it twice in a row returns zero the second time.
func OffsetDebtWithAdvance(account *Account, c valueobject.Currency, note string, operatorID *uuid.UUID) (OffsetResult, error) {
	result := OffsetResult{Currency: c, Applied: decimal.Zero}
	if account == nil {
		return result, shared.NewDomainError(shared.CodeInvalidInput, "Offset requires an account")
	}
	if !c.IsValid() {
		return result, shared.NewDomainError(shared.CodeInvalidInput, "Offset currency is not supported")
	}

	applicable := decimal.Min(account.AdvanceBalance(c), account.DebtBalance(c))
	if !applicable.IsPositive() {
		return result, nil
	}

	if note == "" {
		note = "debt offset with advance"
	}
	advanceEntry, err := RecordAdjustment(account, AdjustmentRequest{
		Ledger: BalanceAdvance, Currency: c, Amount: applicable, Type: AdjustmentSubtract,
		Source: AdjustmentSourceOffset, Note: note, OperatorID: operatorID,
	})
	if err != nil {
		return result, err
	}
	debtEntry, err := RecordAdjustment(account, AdjustmentRequest{
		Ledger: BalanceDebt, Currency: c, Amount: applicable, Type: AdjustmentSubtract,
		Source: AdjustmentSourceOffset, Note: note, OperatorID: operatorID,
	})
	if err != nil {
		return result, err
	}

	result.Applied = applicable
	result.Entries = []*BalanceAdjustment{advanceEntry, debtEntry}
	account.AddDomainEvent(NewDebtOffsetEvent(account, c, applicable))
	return result, nil
}
