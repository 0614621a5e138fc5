package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Account DTOs
// =============================================================================

// CreateAccountRequest opens a customer or supplier account
type CreateAccountRequest struct {
	Code            string     `json:"code" binding:"required,min=1,max=50"`
	Name            string     `json:"name" binding:"required,min=1,max=200"`
	Kind            string     `json:"kind" binding:"required,oneof=customer supplier"`
	SupportsAdvance *bool      `json:"supports_advance"`
	CreatedBy       *uuid.UUID `json:"-"`
}

// ListAccountsQuery filters account listings
type ListAccountsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Kind     string `form:"kind" binding:"omitempty,oneof=customer supplier"`
	Search   string `form:"search" binding:"max=100"`
}

// CurrencyBalanceResponse is one currency row of an account.
// Net is debt minus advance; negative means the business owes the account.
type CurrencyBalanceResponse struct {
	Currency valueobject.Currency `json:"currency"`
	Debt     decimal.Decimal      `json:"debt"`
	Advance  decimal.Decimal      `json:"advance"`
	Net      decimal.Decimal      `json:"net"`
}

// AccountResponse is an account with its balances
type AccountResponse struct {
	ID              uuid.UUID                 `json:"id"`
	TenantID        uuid.UUID                 `json:"tenant_id"`
	Code            string                    `json:"code"`
	Name            string                    `json:"name"`
	Kind            string                    `json:"kind"`
	SupportsAdvance bool                      `json:"supports_advance"`
	Balances        []CurrencyBalanceResponse `json:"balances"`
	Version         int                       `json:"version"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

// AccountBalancesResponse is the balance summary of one account
type AccountBalancesResponse struct {
	AccountID uuid.UUID                 `json:"account_id"`
	Balances  []CurrencyBalanceResponse `json:"balances"`
}

// DebtChangeRequest is a direct increase or decrease of account debt
type DebtChangeRequest struct {
	Currency   string          `json:"currency" binding:"required,ledger_currency"`
	Amount     decimal.Decimal `json:"amount" binding:"required,positive_decimal"`
	Note       string          `json:"note" binding:"max=500"`
	OperatorID *uuid.UUID      `json:"-"`
}

// =============================================================================
// Adjustment DTOs
// =============================================================================

// AdjustBalanceRequest records a manual balance change with an audit entry
type AdjustBalanceRequest struct {
	Ledger     string          `json:"ledger" binding:"omitempty,oneof=advance debt"`
	Currency   string          `json:"currency" binding:"required,ledger_currency"`
	Amount     decimal.Decimal `json:"amount" binding:"required,positive_decimal"`
	Type       string          `json:"type" binding:"required,oneof=add subtract"`
	Note       string          `json:"note" binding:"max=500"`
	OperatorID *uuid.UUID      `json:"-"`
}

// ReverseAdjustmentRequest undoes an audit entry
type ReverseAdjustmentRequest struct {
	Note       string     `json:"note" binding:"max=500"`
	OperatorID *uuid.UUID `json:"-"`
}

// OffsetRequest nets advance against debt in one currency
type OffsetRequest struct {
	Currency   string     `json:"currency" binding:"required,ledger_currency"`
	Note       string     `json:"note" binding:"max=500"`
	OperatorID *uuid.UUID `json:"-"`
}

// ListAdjustmentsQuery pages through the audit trail of an account
type ListAdjustmentsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Ledger   string `form:"ledger" binding:"omitempty,oneof=advance debt"`
}

// AdjustmentResponse is one audit entry
type AdjustmentResponse struct {
	ID            uuid.UUID            `json:"id"`
	AccountID     uuid.UUID            `json:"account_id"`
	Ledger        string               `json:"ledger"`
	Currency      valueobject.Currency `json:"currency"`
	Amount        decimal.Decimal      `json:"amount"`
	Type          string               `json:"type"`
	Source        string               `json:"source"`
	Note          string               `json:"note,omitempty"`
	BeforeBalance decimal.Decimal      `json:"before_balance"`
	AfterBalance  decimal.Decimal      `json:"after_balance"`
	ReversalOf    *uuid.UUID           `json:"reversal_of,omitempty"`
	OperatorID    *uuid.UUID           `json:"operator_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// OffsetResponse reports how much was netted
type OffsetResponse struct {
	AccountID uuid.UUID                 `json:"account_id"`
	Currency  valueobject.Currency      `json:"currency"`
	Applied   decimal.Decimal           `json:"applied"`
	Entries   []AdjustmentResponse      `json:"entries"`
	Balances  []CurrencyBalanceResponse `json:"balances"`
}

// =============================================================================
// Invoice DTOs
// =============================================================================

// CreateInvoiceRequest issues a sale or purchase invoice
type CreateInvoiceRequest struct {
	AccountID   uuid.UUID       `json:"account_id" binding:"required"`
	Number      string          `json:"number" binding:"required,min=1,max=50"`
	Kind        string          `json:"kind" binding:"required,oneof=sale purchase"`
	Terms       string          `json:"terms" binding:"required,oneof=cash credit"`
	Currency    string          `json:"currency" binding:"required,ledger_currency"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required,positive_decimal"`
	UpfrontPaid decimal.Decimal `json:"upfront_paid"`
	CreatedBy   *uuid.UUID      `json:"-"`
}

// ListInvoicesQuery filters invoices of an account
type ListInvoicesQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status   string `form:"status" binding:"omitempty,oneof=unpaid partial paid"`
}

// InvoiceResponse is an invoice with its derived status
type InvoiceResponse struct {
	ID              uuid.UUID            `json:"id"`
	AccountID       uuid.UUID            `json:"account_id"`
	Number          string               `json:"number"`
	Kind            string               `json:"kind"`
	Terms           string               `json:"terms"`
	Currency        valueobject.Currency `json:"currency"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	PaidAmount      decimal.Decimal      `json:"paid_amount"`
	RemainingAmount decimal.Decimal      `json:"remaining_amount"`
	Status          string               `json:"status"`
	DebtTracked     bool                 `json:"debt_tracked"`
	IssuedAt        time.Time            `json:"issued_at"`
	Version         int                  `json:"version"`
}

// =============================================================================
// Payment DTOs
// =============================================================================

// SubmitPaymentRequest presents a raw payment to the settlement engine.
// ApplyAdvance defaults to true.
type SubmitPaymentRequest struct {
	AccountID      uuid.UUID       `json:"account_id" binding:"required"`
	InvoiceID      *uuid.UUID      `json:"invoice_id"`
	Amount         decimal.Decimal `json:"amount" binding:"required,positive_decimal"`
	Currency       string          `json:"currency" binding:"omitempty,ledger_currency"`
	Method         string          `json:"method" binding:"omitempty,oneof=cash card_terminal transfer cheque advance other"`
	ApplyAdvance   *bool           `json:"apply_advance"`
	Reference      string          `json:"reference" binding:"max=100"`
	Note           string          `json:"note" binding:"max=500"`
	IdempotencyKey string          `json:"-"`
	OperatorID     *uuid.UUID      `json:"-"`
}

// ListPaymentsQuery pages through payments of an account
type ListPaymentsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ReversePaymentRequest cancels or refunds a payment
type ReversePaymentRequest struct {
	Reason     string     `json:"reason" binding:"max=500"`
	OperatorID *uuid.UUID `json:"-"`
}

// PaymentResponse is a persisted payment with its allocation
type PaymentResponse struct {
	ID            uuid.UUID            `json:"id"`
	AccountID     uuid.UUID            `json:"account_id"`
	InvoiceID     *uuid.UUID           `json:"invoice_id,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      valueobject.Currency `json:"currency"`
	Method        string               `json:"method"`
	Status        string               `json:"status"`
	AdvanceUsed   decimal.Decimal      `json:"advance_applied"`
	DebtReduction decimal.Decimal      `json:"debt_reduction"`
	ExcessAmount  decimal.Decimal      `json:"excess_amount"`
	DebtSettled   decimal.Decimal      `json:"debt_settled"`
	Reference     string               `json:"reference,omitempty"`
	Note          string               `json:"note,omitempty"`
	PaidAt        time.Time            `json:"paid_at"`
	ReversedAt    *time.Time           `json:"reversed_at,omitempty"`
	ReverseReason string               `json:"reverse_reason,omitempty"`
}

// SettlementResponse is the outcome of a payment submission.
// Replayed is true when the idempotency key matched an earlier submission.
type SettlementResponse struct {
	Payment  PaymentResponse           `json:"payment"`
	Invoice  *InvoiceResponse          `json:"invoice,omitempty"`
	Balances []CurrencyBalanceResponse `json:"balances"`
	Replayed bool                      `json:"replayed"`
}

// PreviewRequest asks what a payment would do. Either InvoiceID or DebtAmount supplies the debt.
type PreviewRequest struct {
	InvoiceID     *uuid.UUID       `json:"invoice_id"`
	DebtAmount    *decimal.Decimal `json:"debt_amount"`
	PaymentAmount decimal.Decimal  `json:"payment_amount" binding:"required,positive_decimal"`
	Currency      string           `json:"currency" binding:"omitempty,ledger_currency"`
}

// PreviewResponse is a payment preview
type PreviewResponse struct {
	Currency valueobject.Currency `json:"currency,omitempty"`
	ledger.PaymentPreview
}

// =============================================================================
// Mapping
// =============================================================================

func toBalances(a *ledger.Account) []CurrencyBalanceResponse {
	out := make([]CurrencyBalanceResponse, 0, len(valueobject.Currencies()))
	for _, c := range valueobject.Currencies() {
		out = append(out, CurrencyBalanceResponse{
			Currency: c,
			Debt:     a.DebtBalance(c),
			Advance:  a.AdvanceBalance(c),
			Net:      a.NetBalance(c),
		})
	}
	return out
}

// ToAccountResponse maps an account
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		TenantID:        a.TenantID,
		Code:            a.Code,
		Name:            a.Name,
		Kind:            string(a.Kind),
		SupportsAdvance: a.SupportsAdvance,
		Balances:        toBalances(a),
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ToAdjustmentResponse maps an audit entry
func ToAdjustmentResponse(b *ledger.BalanceAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:            b.ID,
		AccountID:     b.AccountID,
		Ledger:        string(b.Ledger),
		Currency:      b.Currency,
		Amount:        b.Amount,
		Type:          string(b.Type),
		Source:        string(b.Source),
		Note:          b.Note,
		BeforeBalance: b.BeforeBalance,
		AfterBalance:  b.AfterBalance,
		ReversalOf:    b.ReversalOf,
		OperatorID:    b.OperatorID,
		CreatedAt:     b.CreatedAt,
	}
}

// ToInvoiceResponse maps an invoice
func ToInvoiceResponse(inv *ledger.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID,
		AccountID:       inv.AccountID,
		Number:          inv.Number,
		Kind:            string(inv.Kind),
		Terms:           string(inv.Terms),
		Currency:        inv.Currency,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
		Status:          string(inv.Status()),
		DebtTracked:     inv.DebtTracked,
		IssuedAt:        inv.IssuedAt,
		Version:         inv.Version,
	}
}

// ToPaymentResponse maps a payment record
func ToPaymentResponse(p *ledger.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		AccountID:     p.AccountID,
		InvoiceID:     p.InvoiceID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Method:        string(p.Method),
		Status:        string(p.Status),
		AdvanceUsed:   p.AdvanceUsed,
		DebtReduction: p.DebtReduction,
		ExcessAmount:  p.ExcessAmount,
		DebtSettled:   p.DebtSettled,
		Reference:     p.Reference,
		Note:          p.Note,
		PaidAt:        p.PaidAt,
		ReversedAt:    p.ReversedAt,
		ReverseReason: p.ReverseReason,
	}
}

func mapSlice[T, R any](items []T, fn func(*T) R) []R {
	out := make([]R, len(items))
	for i := range items {
		out[i] = fn(&items[i])
	}
	return out
}

func newFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}
