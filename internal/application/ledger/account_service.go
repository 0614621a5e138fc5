package ledger

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountService manages accounts and direct debt changes
type AccountService struct {
	run *runner
}

func newAccountService(r *runner) *AccountService {
	return &AccountService{run: r}
}

// Create opens an account with zero balances
func (s *AccountService) Create(ctx context.Context, tenantID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	var created *ledger.Account
	err := s.run.run(ctx, "account.create", func(ctx context.Context, repos ledger.Repositories, ev *events) error {
		exists, err := repos.Accounts.ExistsByCode(ctx, tenantID, req.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("account code %q is already in use", req.Code))
		}
		account, err := ledger.NewAccount(tenantID, req.Code, req.Name, ledger.AccountKind(req.Kind), req.SupportsAdvance)
		if err != nil {
			return err
		}
		if req.CreatedBy != nil {
			account.SetCreatedBy(*req.CreatedBy)
		}
		if err := repos.Accounts.Create(ctx, account); err != nil {
			return err
		}
		ev.collect(account)
		created = account
		return nil
	})
	if err != nil {
		logRejected(ctx, s.run.logger, "Account creation rejected", err, zap.String("code", req.Code))
		return nil, err
	}
	logger.Or(ctx, s.run.logger).Info("Account created",
		logger.AccountID(created.ID),
		zap.String("kind", string(created.Kind)),
		zap.Bool("supports_advance", created.SupportsAdvance),
	)
	resp := ToAccountResponse(created)
	return &resp, nil
}

// Get returns one account
func (s *AccountService) Get(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountResponse, error) {
	var resp AccountResponse
	err := s.run.read(ctx, "account.get", func(ctx context.Context, repos ledger.Repositories) error {
		account, err := repos.Accounts.FindByIDForTenant(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		resp = ToAccountResponse(account)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns a page of accounts
func (s *AccountService) List(ctx context.Context, tenantID uuid.UUID, q ListAccountsQuery) (*shared.Paginated[AccountResponse], error) {
	filter := ledger.AccountFilter{
		Filter: newFilter(q.Page, q.PageSize, q.OrderBy, q.OrderDir),
		Kind:   ledger.AccountKind(q.Kind),
	}
	if q.Search != "" {
		filter.Filters["search"] = q.Search
	}

	var page shared.Paginated[AccountResponse]
	err := s.run.read(ctx, "account.list", func(ctx context.Context, repos ledger.Repositories) error {
		accounts, total, err := repos.Accounts.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(mapSlice(accounts, ToAccountResponse), total, filter.Page, filter.Limit())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Balances returns debt, advance and net per currency
func (s *AccountService) Balances(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountBalancesResponse, error) {
	var resp AccountBalancesResponse
	err := s.run.read(ctx, "account.balances", func(ctx context.Context, repos ledger.Repositories) error {
		account, err := repos.Accounts.FindByIDForTenant(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		resp = AccountBalancesResponse{AccountID: account.ID, Balances: toBalances(account)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// IncreaseDebt adds to the account debt and records a debt audit entry
func (s *AccountService) IncreaseDebt(ctx context.Context, tenantID, accountID uuid.UUID, req DebtChangeRequest) (*AdjustmentResponse, error) {
	return s.changeDebt(ctx, tenantID, accountID, ledger.AdjustmentAdd, req)
}

// DecreaseDebt removes from the account debt. More than the balance fails with INSUFFICIENT_BALANCE.
func (s *AccountService) DecreaseDebt(ctx context.Context, tenantID, accountID uuid.UUID, req DebtChangeRequest) (*AdjustmentResponse, error) {
	return s.changeDebt(ctx, tenantID, accountID, ledger.AdjustmentSubtract, req)
}

func (s *AccountService) changeDebt(ctx context.Context, tenantID, accountID uuid.UUID, typ ledger.AdjustmentType, req DebtChangeRequest) (*AdjustmentResponse, error) {
	c, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	if err := valueobject.ValidateAmount(req.Amount, c); err != nil {
		return nil, err
	}

	operation := "account.debt_" + map[ledger.AdjustmentType]string{ledger.AdjustmentAdd: "increase", ledger.AdjustmentSubtract: "decrease"}[typ]
	entry, err := recordAdjustment(ctx, s.run, operation, tenantID, accountID, ledger.AdjustmentRequest{
		Ledger:     ledger.BalanceDebt,
		Currency:   c,
		Amount:     req.Amount,
		Type:       typ,
		Source:     ledger.AdjustmentSourceManual,
		Note:       req.Note,
		OperatorID: req.OperatorID,
	})
	if err != nil {
		logRejected(ctx, s.run.logger, "Debt change rejected", err, logger.AccountID(accountID), logger.Currency(c.String()))
		return nil, err
	}
	logger.Or(ctx, s.run.logger).Info("Account debt changed",
		logger.AccountID(accountID),
		logger.Currency(c.String()),
		zap.String("type", string(typ)),
		logger.Amount("amount", entry.Amount),
		logger.Amount("after", entry.AfterBalance),
	)
	resp := ToAdjustmentResponse(entry)
	return &resp, nil
}

// recordAdjustment locks the account, applies req and appends the audit entry in one transaction
func recordAdjustment(ctx context.Context, r *runner, operation string, tenantID, accountID uuid.UUID, req ledger.AdjustmentRequest) (*ledger.BalanceAdjustment, error) {
	var entry *ledger.BalanceAdjustment
	err := r.run(ctx, operation, func(ctx context.Context, repos ledger.Repositories, ev *events) error {
		account, err := repos.Accounts.FindForUpdate(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		adj, err := ledger.RecordAdjustment(account, req)
		if err != nil {
			return err
		}
		if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
			return err
		}
		if err := repos.Adjustments.Create(ctx, adj); err != nil {
			return err
		}
		ev.collect(account)
		entry = adj
		return nil
	})
	return entry, err
}
