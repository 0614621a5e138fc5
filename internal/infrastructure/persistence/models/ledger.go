package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel stores one column per (balance kind, currency) pair.
type AccountModel struct {
	AggregateModel
	TenantID        uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_account_tenant_code,priority:1"`
	CreatedBy       *uuid.UUID         `gorm:"type:uuid"`
	Code            string             `gorm:"type:varchar(50);not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name            string             `gorm:"type:varchar(200);not null"`
	Kind            ledger.AccountKind `gorm:"type:varchar(20);not null;index"`
	SupportsAdvance bool               `gorm:"not null;default:false"`
	DebtIQD         decimal.Decimal    `gorm:"column:debt_iqd;type:decimal(20,4);not null;default:0"`
	DebtUSD         decimal.Decimal    `gorm:"column:debt_usd;type:decimal(20,4);not null;default:0"`
	AdvanceIQD      decimal.Decimal    `gorm:"column:advance_iqd;type:decimal(20,4);not null;default:0"`
	AdvanceUSD      decimal.Decimal    `gorm:"column:advance_usd;type:decimal(20,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		TenantAggregateRoot: m.tenantRoot(m.TenantID, m.CreatedBy),
		Code:                m.Code,
		Name:                m.Name,
		Kind:                m.Kind,
		SupportsAdvance:     m.SupportsAdvance,
		Debt:                valueobject.NewCurrencyBalances(m.DebtIQD, m.DebtUSD),
		Advance:             valueobject.NewCurrencyBalances(m.AdvanceIQD, m.AdvanceUSD),
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	return &AccountModel{
		AggregateModel:  aggregateFromDomain(a.TenantAggregateRoot),
		TenantID:        a.TenantID,
		CreatedBy:       a.CreatedBy,
		Code:            a.Code,
		Name:            a.Name,
		Kind:            a.Kind,
		SupportsAdvance: a.SupportsAdvance,
		DebtIQD:         a.Debt.Get(valueobject.IQD),
		DebtUSD:         a.Debt.Get(valueobject.USD),
		AdvanceIQD:      a.Advance.Get(valueobject.IQD),
		AdvanceUSD:      a.Advance.Get(valueobject.USD),
	}
}

// BalanceColumns returns the mutable columns written by a versioned save
func (m *AccountModel) BalanceColumns() map[string]any {
	return map[string]any{
		"name":        m.Name,
		"debt_iqd":    m.DebtIQD,
		"debt_usd":    m.DebtUSD,
		"advance_iqd": m.AdvanceIQD,
		"advance_usd": m.AdvanceUSD,
		"updated_at":  m.UpdatedAt,
	}
}

// InvoiceModel is the persistence model for Invoice. Status is derived on
// write so listings can filter on it.
type InvoiceModel struct {
	AggregateModel
	TenantID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_tenant_number,priority:1"`
	CreatedBy       *uuid.UUID           `gorm:"type:uuid"`
	AccountID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Number          string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	Kind            ledger.InvoiceKind   `gorm:"type:varchar(20);not null"`
	Terms           ledger.InvoiceTerms  `gorm:"type:varchar(20);not null"`
	Currency        string               `gorm:"type:varchar(3);not null"`
	TotalAmount     decimal.Decimal      `gorm:"type:decimal(20,4);not null"`
	PaidAmount      decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	RemainingAmount decimal.Decimal      `gorm:"type:decimal(20,4);not null"`
	Status          ledger.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	DebtTracked     bool                 `gorm:"not null;default:false"`
	IssuedAt        time.Time            `gorm:"not null"`
}

func (InvoiceModel) TableName() string {
	return "invoices"
}

func (m *InvoiceModel) ToDomain() *ledger.Invoice {
	return &ledger.Invoice{
		TenantAggregateRoot: m.tenantRoot(m.TenantID, m.CreatedBy),
		AccountID:           m.AccountID,
		Number:              m.Number,
		Kind:                m.Kind,
		Terms:               m.Terms,
		Currency:            valueobject.Currency(m.Currency),
		TotalAmount:         m.TotalAmount,
		PaidAmount:          m.PaidAmount,
		RemainingAmount:     m.RemainingAmount,
		DebtTracked:         m.DebtTracked,
		IssuedAt:            m.IssuedAt,
	}
}

func InvoiceModelFromDomain(inv *ledger.Invoice) *InvoiceModel {
	return &InvoiceModel{
		AggregateModel:  aggregateFromDomain(inv.TenantAggregateRoot),
		TenantID:        inv.TenantID,
		CreatedBy:       inv.CreatedBy,
		AccountID:       inv.AccountID,
		Number:          inv.Number,
		Kind:            inv.Kind,
		Terms:           inv.Terms,
		Currency:        inv.Currency.String(),
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
		Status:          inv.Status(),
		DebtTracked:     inv.DebtTracked,
		IssuedAt:        inv.IssuedAt,
	}
}

func (m *InvoiceModel) SettlementColumns() map[string]any {
	return map[string]any{
		"paid_amount":      m.PaidAmount,
		"remaining_amount": m.RemainingAmount,
		"status":           m.Status,
		"debt_tracked":     m.DebtTracked,
		"updated_at":       m.UpdatedAt,
	}
}

// PaymentModel is the persistence model for PaymentRecord.
// IdempotencyKey is NULL when the client sent none so the unique index ignores it.
type PaymentModel struct {
	AggregateModel
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_payment_tenant_idempotency,priority:1"`
	CreatedBy      *uuid.UUID           `gorm:"type:uuid"`
	AccountID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceID      *uuid.UUID           `gorm:"type:uuid;index"`
	Amount         decimal.Decimal      `gorm:"type:decimal(20,4);not null"`
	Currency       string               `gorm:"type:varchar(3);not null"`
	Method         ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	Status         ledger.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	AdvanceUsed    decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	DebtReduction  decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	ExcessAmount   decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	DebtSettled    decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	ApplyAdvance   bool                 `gorm:"not null"`
	IdempotencyKey *string              `gorm:"type:varchar(100);uniqueIndex:idx_payment_tenant_idempotency,priority:2"`
	Reference      string               `gorm:"type:varchar(100)"`
	Note           string               `gorm:"type:varchar(500)"`
	PaidAt         time.Time            `gorm:"not null"`
	ReversedAt     *time.Time
	ReverseReason  string `gorm:"type:varchar(500)"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

func (m *PaymentModel) ToDomain() *ledger.PaymentRecord {
	return &ledger.PaymentRecord{
		TenantAggregateRoot: m.tenantRoot(m.TenantID, m.CreatedBy),
		AccountID:           m.AccountID,
		InvoiceID:           m.InvoiceID,
		Amount:              m.Amount,
		Currency:            valueobject.Currency(m.Currency),
		Method:              m.Method,
		Status:              m.Status,
		AdvanceUsed:         m.AdvanceUsed,
		DebtReduction:       m.DebtReduction,
		ExcessAmount:        m.ExcessAmount,
		DebtSettled:         m.DebtSettled,
		ApplyAdvance:        m.ApplyAdvance,
		IdempotencyKey:      derefString(m.IdempotencyKey),
		Reference:           m.Reference,
		Note:                m.Note,
		PaidAt:              m.PaidAt,
		ReversedAt:          m.ReversedAt,
		ReverseReason:       m.ReverseReason,
	}
}

func PaymentModelFromDomain(p *ledger.PaymentRecord) *PaymentModel {
	return &PaymentModel{
		AggregateModel: aggregateFromDomain(p.TenantAggregateRoot),
		TenantID:       p.TenantID,
		CreatedBy:      p.CreatedBy,
		AccountID:      p.AccountID,
		InvoiceID:      p.InvoiceID,
		Amount:         p.Amount,
		Currency:       p.Currency.String(),
		Method:         p.Method,
		Status:         p.Status,
		AdvanceUsed:    p.AdvanceUsed,
		DebtReduction:  p.DebtReduction,
		ExcessAmount:   p.ExcessAmount,
		DebtSettled:    p.DebtSettled,
		ApplyAdvance:   p.ApplyAdvance,
		IdempotencyKey: nullableString(p.IdempotencyKey),
		Reference:      p.Reference,
		Note:           p.Note,
		PaidAt:         p.PaidAt,
		ReversedAt:     p.ReversedAt,
		ReverseReason:  p.ReverseReason,
	}
}

// StatusColumns returns the columns a reversal may change. Amounts are immutable.
func (m *PaymentModel) StatusColumns() map[string]any {
	return map[string]any{
		"status":         m.Status,
		"reversed_at":    m.ReversedAt,
		"reverse_reason": m.ReverseReason,
		"updated_at":     m.UpdatedAt,
	}
}

// BalanceAdjustmentModel is an append-only audit row. ReversalOf is unique so
// an entry can be reversed at most once.
type BalanceAdjustmentModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primaryKey"`
	CreatedAt     time.Time               `gorm:"not null;index"`
	UpdatedAt     time.Time               `gorm:"not null"`
	TenantID      uuid.UUID               `gorm:"type:uuid;not null;index:idx_adjustment_tenant_account,priority:1"`
	AccountID     uuid.UUID               `gorm:"type:uuid;not null;index:idx_adjustment_tenant_account,priority:2"`
	Ledger        ledger.BalanceKind      `gorm:"type:varchar(20);not null"`
	Currency      string                  `gorm:"type:varchar(3);not null"`
	Amount        decimal.Decimal         `gorm:"type:decimal(20,4);not null"`
	Type          ledger.AdjustmentType   `gorm:"type:varchar(20);not null"`
	Source        ledger.AdjustmentSource `gorm:"type:varchar(20);not null"`
	Note          string                  `gorm:"type:varchar(500)"`
	BeforeBalance decimal.Decimal         `gorm:"type:decimal(20,4);not null"`
	AfterBalance  decimal.Decimal         `gorm:"type:decimal(20,4);not null"`
	ReversalOf    *uuid.UUID              `gorm:"type:uuid;uniqueIndex"`
	OperatorID    *uuid.UUID              `gorm:"type:uuid"`
}

func (BalanceAdjustmentModel) TableName() string {
	return "balance_adjustments"
}

func (m *BalanceAdjustmentModel) ToDomain() *ledger.BalanceAdjustment {
	return &ledger.BalanceAdjustment{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:      m.TenantID,
		AccountID:     m.AccountID,
		Ledger:        m.Ledger,
		Currency:      valueobject.Currency(m.Currency),
		Amount:        m.Amount,
		Type:          m.Type,
		Source:        m.Source,
		Note:          m.Note,
		BeforeBalance: m.BeforeBalance,
		AfterBalance:  m.AfterBalance,
		ReversalOf:    m.ReversalOf,
		OperatorID:    m.OperatorID,
	}
}

func BalanceAdjustmentModelFromDomain(b *ledger.BalanceAdjustment) *BalanceAdjustmentModel {
	return &BalanceAdjustmentModel{
		ID:            b.ID,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		TenantID:      b.TenantID,
		AccountID:     b.AccountID,
		Ledger:        b.Ledger,
		Currency:      b.Currency.String(),
		Amount:        b.Amount,
		Type:          b.Type,
		Source:        b.Source,
		Note:          b.Note,
		BeforeBalance: b.BeforeBalance,
		AfterBalance:  b.AfterBalance,
		ReversalOf:    b.ReversalOf,
		OperatorID:    b.OperatorID,
	}
}

// All returns every ledger model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&AccountModel{},
		&InvoiceModel{},
		&PaymentModel{},
		&BalanceAdjustmentModel{},
	}
}
