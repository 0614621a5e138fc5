package ledger

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdjustmentService manages direct balance changes and their audit trail
type AdjustmentService struct {
	run *runner
}

func newAdjustmentService(r *runner) *AdjustmentService {
	return &AdjustmentService{run: r}
}

// Adjust changes the advance (default) or debt balance and appends an audit entry
func (s *AdjustmentService) Adjust(ctx context.Context, tenantID, accountID uuid.UUID, req AdjustBalanceRequest) (*AdjustmentResponse, error) {
	c, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	if err := valueobject.ValidateAmount(req.Amount, c); err != nil {
		return nil, err
	}
	kind := ledger.BalanceKind(req.Ledger)
	if kind == "" {
		kind = ledger.BalanceAdvance
	}

	entry, err := recordAdjustment(ctx, s.run, "adjustment.create", tenantID, accountID, ledger.AdjustmentRequest{
		Ledger:     kind,
		Currency:   c,
		Amount:     req.Amount,
		Type:       ledger.AdjustmentType(req.Type),
		Source:     ledger.AdjustmentSourceManual,
		Note:       req.Note,
		OperatorID: req.OperatorID,
	})
	if err != nil {
		logRejected(ctx, s.run.logger, "Balance adjustment rejected", err,
			logger.AccountID(accountID),
			logger.Currency(c.String()),
			zap.String("ledger", string(kind)),
		)
		return nil, err
	}

	logger.Or(ctx, s.run.logger).Info("Balance adjusted",
		logger.AccountID(accountID),
		zap.String("adjustment_id", entry.ID.String()),
		zap.String("ledger", string(kind)),
		zap.String("type", req.Type),
		logger.Amount("before", entry.BeforeBalance),
		logger.Amount("after", entry.AfterBalance),
	)
	resp := ToAdjustmentResponse(entry)
	return &resp, nil
}

// Reverse appends the entry that undoes adjustmentID. Each entry can be
// reversed once; a second attempt fails with ALREADY_REVERSED.
func (s *AdjustmentService) Reverse(ctx context.Context, tenantID, adjustmentID uuid.UUID, req ReverseAdjustmentRequest) (*AdjustmentResponse, error) {
	var entry *ledger.BalanceAdjustment
	err := s.run.run(ctx, "adjustment.reverse", func(ctx context.Context, repos ledger.Repositories, ev *events) error {
		original, err := repos.Adjustments.FindByIDForTenant(ctx, tenantID, adjustmentID)
		if err != nil {
			return err
		}
		account, err := repos.Accounts.FindForUpdate(ctx, tenantID, original.AccountID)
		if err != nil {
			return err
		}

		// checked under the account lock so two reversals cannot both pass
		if _, err := repos.Adjustments.FindReversalOf(ctx, tenantID, original.ID); err == nil {
			return ledger.ErrAlreadyReversed
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		entry, err = ledger.ReverseAdjustment(account, original, req.Note, req.OperatorID)
		if err != nil {
			return err
		}
		if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
			return err
		}
		if err := repos.Adjustments.Create(ctx, entry); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return ledger.ErrAlreadyReversed
			}
			return err
		}
		ev.collect(account)
		return nil
	})
	if err != nil {
		logRejected(ctx, s.run.logger, "Adjustment reversal rejected", err, zap.String("adjustment_id", adjustmentID.String()))
		return nil, err
	}

	logger.Or(ctx, s.run.logger).Info("Adjustment reversed",
		logger.AccountID(entry.AccountID),
		zap.String("adjustment_id", adjustmentID.String()),
		zap.String("reversal_id", entry.ID.String()),
	)
	resp := ToAdjustmentResponse(entry)
	return &resp, nil
}

// Get returns one audit entry
func (s *AdjustmentService) Get(ctx context.Context, tenantID, adjustmentID uuid.UUID) (*AdjustmentResponse, error) {
	var resp AdjustmentResponse
	err := s.run.read(ctx, "adjustment.get", func(ctx context.Context, repos ledger.Repositories) error {
		adj, err := repos.Adjustments.FindByIDForTenant(ctx, tenantID, adjustmentID)
		if err != nil {
			return err
		}
		resp = ToAdjustmentResponse(adj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the audit trail of an account, newest first by default
func (s *AdjustmentService) List(ctx context.Context, tenantID, accountID uuid.UUID, q ListAdjustmentsQuery) (*shared.Paginated[AdjustmentResponse], error) {
	filter := newFilter(q.Page, q.PageSize, "created_at", q.OrderDir)
	if q.Ledger != "" {
		filter.Filters["ledger"] = q.Ledger
	}

	var page shared.Paginated[AdjustmentResponse]
	err := s.run.read(ctx, "adjustment.list", func(ctx context.Context, repos ledger.Repositories) error {
		if _, err := repos.Accounts.FindByIDForTenant(ctx, tenantID, accountID); err != nil {
			return err
		}
		entries, total, err := repos.Adjustments.FindByAccount(ctx, tenantID, accountID, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(mapSlice(entries, ToAdjustmentResponse), total, filter.Page, filter.Limit())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Offset nets advance against debt in one currency. Nothing to net is not
// an error: the response reports Applied = 0 and no entries.
func (s *AdjustmentService) Offset(ctx context.Context, tenantID, accountID uuid.UUID, req OffsetRequest) (*OffsetResponse, error) {
	c, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	var (
		result  ledger.OffsetResult
		account *ledger.Account
	)
	err = s.run.run(ctx, "account.offset", func(ctx context.Context, repos ledger.Repositories, ev *events) error {
		var err error
		account, err = repos.Accounts.FindForUpdate(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		result, err = ledger.OffsetDebtWithAdvance(account, c, req.Note, req.OperatorID)
		if err != nil {
			return err
		}
		if len(result.Entries) == 0 {
			return nil
		}
		if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
			return err
		}
		for _, entry := range result.Entries {
			if err := repos.Adjustments.Create(ctx, entry); err != nil {
				return err
			}
		}
		ev.collect(account)
		return nil
	})
	if err != nil {
		logRejected(ctx, s.run.logger, "Offset rejected", err, logger.AccountID(accountID), logger.Currency(c.String()))
		return nil, err
	}

	logger.Or(ctx, s.run.logger).Info("Debt offset with advance",
		logger.AccountID(accountID),
		logger.Currency(c.String()),
		logger.Amount("applied", result.Applied),
	)
	entries := make([]AdjustmentResponse, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, ToAdjustmentResponse(e))
	}
	return &OffsetResponse{
		AccountID: accountID,
		Currency:  c,
		Applied:   result.Applied,
		Entries:   entries,
		Balances:  toBalances(account),
	}, nil
}
