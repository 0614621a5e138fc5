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

// InvoiceService issues and reads invoices
type InvoiceService struct {
	run *runner
}

func newInvoiceService(r *runner) *InvoiceService {
	return &InvoiceService{run: r}
}

// Create issues an invoice. With debt sync on, a credit invoice's remainder
// is accrued onto the account debt in the same transaction.
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	c, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	total, err := valueobject.NewMoney(req.TotalAmount, c)
	if err != nil {
		return nil, err
	}

	var created *ledger.Invoice
	err = s.run.run(ctx, "invoice.create", func(ctx context.Context, repos ledger.Repositories, ev *events) error {
		exists, err := repos.Invoices.ExistsByNumber(ctx, tenantID, req.Number)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("invoice number %q is already in use", req.Number))
		}

		account, err := repos.Accounts.FindForUpdate(ctx, tenantID, req.AccountID)
		if err != nil {
			return err
		}
		inv, err := ledger.NewInvoice(tenantID, account.ID, req.Number,
			ledger.InvoiceKind(req.Kind), ledger.InvoiceTerms(req.Terms), total, req.UpfrontPaid)
		if err != nil {
			return err
		}
		if req.CreatedBy != nil {
			inv.SetCreatedBy(*req.CreatedBy)
		}

		if s.run.opts.SyncAccountDebt && inv.Terms == ledger.InvoiceTermsCredit && inv.RemainingAmount.IsPositive() {
			if err := account.IncreaseDebt(c, inv.RemainingAmount, "invoice:"+inv.Number); err != nil {
				return err
			}
			inv.MarkDebtTracked()
			if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
				return err
			}
		}
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		ev.collect(inv, account)
		created = inv
		return nil
	})
	if err != nil {
		logRejected(ctx, s.run.logger, "Invoice creation rejected", err, logger.AccountID(req.AccountID), zap.String("number", req.Number))
		return nil, err
	}

	logger.Or(ctx, s.run.logger).Info("Invoice created",
		logger.InvoiceID(created.ID),
		logger.AccountID(created.AccountID),
		logger.Currency(c.String()),
		logger.Amount("total", created.TotalAmount),
		logger.Amount("remaining", created.RemainingAmount),
		zap.Bool("debt_tracked", created.DebtTracked),
	)
	resp := ToInvoiceResponse(created)
	return &resp, nil
}

// Get returns one invoice
func (s *InvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	err := s.run.read(ctx, "invoice.get", func(ctx context.Context, repos ledger.Repositories) error {
		inv, err := repos.Invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListByAccount returns a page of an account's invoices
func (s *InvoiceService) ListByAccount(ctx context.Context, tenantID, accountID uuid.UUID, q ListInvoicesQuery) (*shared.Paginated[InvoiceResponse], error) {
	filter := ledger.InvoiceFilter{
		Filter: newFilter(q.Page, q.PageSize, q.OrderBy, q.OrderDir),
		Status: ledger.InvoiceStatus(q.Status),
	}

	var page shared.Paginated[InvoiceResponse]
	err := s.run.read(ctx, "invoice.list", func(ctx context.Context, repos ledger.Repositories) error {
		if _, err := repos.Accounts.FindByIDForTenant(ctx, tenantID, accountID); err != nil {
			return err
		}
		invoices, total, err := repos.Invoices.FindByAccount(ctx, tenantID, accountID, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(mapSlice(invoices, ToInvoiceResponse), total, filter.Page, filter.Limit())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}
