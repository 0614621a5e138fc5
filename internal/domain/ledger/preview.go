package ledger

import "github.com/shopspring/decimal"

// PaymentPreview shows what a payment would do to a debt, without committing anything
type PaymentPreview struct {
	IsExcess      bool            `json:"is_excess"`
	ExcessAmount  decimal.Decimal `json:"excess_amount"`
	DebtCleared   decimal.Decimal `json:"debt_cleared"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
}

// PreviewPayment mirrors the debt-reduction step of Settle with no advance applied
func PreviewPayment(debtAmount, paymentAmount decimal.Decimal) PaymentPreview {
	if paymentAmount.GreaterThan(debtAmount) {
		return PaymentPreview{
			IsExcess:      true,
			ExcessAmount:  paymentAmount.Sub(debtAmount),
			DebtCleared:   debtAmount,
			RemainingDebt: decimal.Zero,
		}
	}
	return PaymentPreview{
		IsExcess:      false,
		ExcessAmount:  decimal.Zero,
		DebtCleared:   paymentAmount,
		RemainingDebt: debtAmount.Sub(paymentAmount),
	}
}
