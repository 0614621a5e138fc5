package ledger

import (
	"fmt"
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustmentType is the direction of a balance adjustment
type AdjustmentType string

const (
	AdjustmentAdd      AdjustmentType = "add"
	AdjustmentSubtract AdjustmentType = "subtract"
)

// Opposite returns the type that undoes t
func (t AdjustmentType) Opposite() AdjustmentType {
	if t == AdjustmentAdd {
		return AdjustmentSubtract
	}
	return AdjustmentAdd
}

// AdjustmentSource records which flow produced an adjustment
type AdjustmentSource string

const (
	AdjustmentSourceManual   AdjustmentSource = "manual"
	AdjustmentSourceOffset   AdjustmentSource = "offset"
	AdjustmentSourceReversal AdjustmentSource = "reversal"
)

// BalanceAdjustment is an append-only audit entry for a direct balance change.
// Entries are never edited; a correction is a new entry with ReversalOf set.
type BalanceAdjustment struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	AccountID     uuid.UUID
	Ledger        BalanceKind
	Currency      valueobject.Currency
	Amount        decimal.Decimal
	Type          AdjustmentType
	Source        AdjustmentSource
	Note          string
	BeforeBalance decimal.Decimal
	AfterBalance  decimal.Decimal
	ReversalOf    *uuid.UUID
	OperatorID    *uuid.UUID
}

// AdjustmentRequest describes one direct balance change
type AdjustmentRequest struct {
	Ledger     BalanceKind
	Currency   valueobject.Currency
	Amount     decimal.Decimal
	Type       AdjustmentType
	Source     AdjustmentSource
	Note       string
	OperatorID *uuid.UUID
	ReversalOf *uuid.UUID
}

// RecordAdjustment applies the change to the account and returns the audit
// entry holding before and after snapshots. Subtracting more than the
// balance fails with INSUFFICIENT_BALANCE and leaves the account untouched.
func RecordAdjustment(account *Account, req AdjustmentRequest) (*BalanceAdjustment, error) {
	if account == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Adjustment requires an account")
	}
	if !req.Ledger.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown ledger %q", req.Ledger))
	}
	if req.Type != AdjustmentAdd && req.Type != AdjustmentSubtract {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown adjustment type %q", req.Type))
	}
	if req.Source == "" {
		req.Source = AdjustmentSourceManual
	}
	note := strings.TrimSpace(req.Note)
	if len(note) > 500 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Adjustment note must be at most 500 characters")
	}

	before := account.Balance(req.Ledger, req.Currency)
	reason := "adjustment:" + string(req.Source)

	var err error
	switch {
	case req.Ledger == BalanceAdvance && req.Type == AdjustmentAdd:
		err = account.IncreaseAdvance(req.Currency, req.Amount, reason)
	case req.Ledger == BalanceAdvance:
		err = account.DecreaseAdvance(req.Currency, req.Amount, reason)
	case req.Type == AdjustmentAdd:
		err = account.IncreaseDebt(req.Currency, req.Amount, reason)
	default:
		err = account.DecreaseDebt(req.Currency, req.Amount, reason)
	}
	if err != nil {
		return nil, err
	}

	adj := &BalanceAdjustment{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      account.TenantID,
		AccountID:     account.ID,
		Ledger:        req.Ledger,
		Currency:      req.Currency,
		Amount:        req.Amount,
		Type:          req.Type,
		Source:        req.Source,
		Note:          note,
		BeforeBalance: before,
		AfterBalance:  account.Balance(req.Ledger, req.Currency),
		ReversalOf:    req.ReversalOf,
		OperatorID:    req.OperatorID,
	}
	account.AddDomainEvent(NewBalanceAdjustedEvent(adj))
	return adj, nil
}

// ReverseAdjustment appends the entry that undoes original. Reversals and
// offset entries are not reversible. The caller guarantees original has not
// been reversed before.
func ReverseAdjustment(account *Account, original *BalanceAdjustment, note string, operatorID *uuid.UUID) (*BalanceAdjustment, error) {
	if original == nil || account == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reversal requires the original entry and its account")
	}
	if original.AccountID != account.ID {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Adjustment belongs to a different account")
	}
	if original.ReversalOf != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "A reversal entry cannot itself be reversed")
	}
	// an offset moves advance and debt together; undoing one side alone would mint credit
	if original.Source == AdjustmentSourceOffset {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Offset entries cannot be reversed; record a manual adjustment instead")
	}
	if strings.TrimSpace(note) == "" {
		note = "reversal of " + original.ID.String()
	}
	originalID := original.ID
	return RecordAdjustment(account, AdjustmentRequest{
		Ledger:     original.Ledger,
		Currency:   original.Currency,
		Amount:     original.Amount,
		Type:       original.Type.Opposite(),
		Source:     AdjustmentSourceReversal,
		Note:       note,
		OperatorID: operatorID,
		ReversalOf: &originalID,
	})
}

// SignedAmount is +Amount for add and -Amount for subtract
func (b *BalanceAdjustment) SignedAmount() decimal.Decimal {
	if b.Type == AdjustmentSubtract {
		return b.Amount.Neg()
	}
	return b.Amount
}

// CheckSnapshot verifies after == before +/- amount
func (b *BalanceAdjustment) CheckSnapshot() error {
	if !b.BeforeBalance.Add(b.SignedAmount()).Equal(b.AfterBalance) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("adjustment %s: before %s %s %s != after %s",
				b.ID, b.BeforeBalance.String(), b.Type, b.Amount.String(), b.AfterBalance.String()))
	}
	return nil
}
