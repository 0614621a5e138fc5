package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const pendingMarker = "pending"

// PaymentService runs the settlement engine and manages payment records
type PaymentService struct {
	run         *runner
	idempotency shared.IdempotencyStore
}

func newPaymentService(r *runner, store shared.IdempotencyStore) *PaymentService {
	return &PaymentService{run: r, idempotency: store}
}

// Submit settles a raw payment against an invoice, or tops up the account
// advance when no invoice is given. The account and invoice rows are locked
// for the whole transaction. A repeated IdempotencyKey returns the first
// payment instead of settling again.
func (s *PaymentService) Submit(ctx context.Context, tenantID uuid.UUID, req SubmitPaymentRequest) (*SettlementResponse, error) {
	if req.IdempotencyKey != "" {
		ctx = logger.WithIdempotencyKey(ctx, req.IdempotencyKey)
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("amount must be positive, got %s", req.Amount.String()))
	}
	if req.InvoiceID == nil && req.Currency == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "currency is required when no invoice is given")
	}
	method := ledger.PaymentMethod(req.Method)
	if method == "" {
		method = ledger.PaymentMethodCash
	}
	applyAdvance := req.ApplyAdvance == nil || *req.ApplyAdvance

	release, replay, err := s.claimKey(ctx, tenantID, req)
	if err != nil || replay != nil {
		return replay, err
	}
	// the claim is released on every exit, panics included
	var committed string
	defer func() { release(ctx, committed) }()

	var (
		payment *ledger.PaymentRecord
		invoice *ledger.Invoice
		account *ledger.Account
		c       valueobject.Currency
	)
	err = s.run.run(ctx, "payment.submit", func(ctx context.Context, repos ledger.Repositories, ev *events) error {
		payment, invoice, account = nil, nil, nil

		var err error
		account, err = repos.Accounts.FindForUpdate(ctx, tenantID, req.AccountID)
		if err != nil {
			return err
		}
		if req.InvoiceID != nil {
			invoice, err = repos.Invoices.FindForUpdate(ctx, tenantID, *req.InvoiceID)
			if err != nil {
				return err
			}
		}

		c, err = resolveCurrency(req.Currency, invoice)
		if err != nil {
			return err
		}
		amount, err := valueobject.NewMoney(req.Amount, c)
		if err != nil {
			return err
		}

		alloc, err := ledger.Settle(ledger.SettlementRequest{
			Account:         account,
			Invoice:         invoice,
			Amount:          amount,
			ApplyAdvance:    applyAdvance,
			SyncAccountDebt: s.run.opts.SyncAccountDebt,
		})
		if err != nil {
			return err
		}

		var invoiceID *uuid.UUID
		if invoice != nil {
			id := invoice.ID
			invoiceID = &id
		}
		payment, err = ledger.NewPaymentRecord(tenantID, account.ID, invoiceID, amount, method, alloc)
		if err != nil {
			return err
		}
		payment.WithReference(req.Reference).WithNote(req.Note).WithIdempotencyKey(req.IdempotencyKey).WithApplyAdvance(applyAdvance)
		if req.OperatorID != nil {
			payment.SetCreatedBy(*req.OperatorID)
		}

		if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
			return err
		}
		if invoice != nil {
			if err := repos.Invoices.SaveWithLock(ctx, invoice); err != nil {
				return err
			}
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}

		ev.collect(account, payment)
		if invoice != nil {
			ev.collect(invoice)
		}
		return nil
	})

	if err != nil {
		if req.IdempotencyKey != "" && errors.Is(err, shared.ErrAlreadyExists) {
			// another instance committed the same key first
			if replayed, rerr := s.replay(ctx, tenantID, req, false); rerr == nil {
				return replayed, nil
			}
		}
		label := c.String()
		if label == "" {
			label = "unknown"
		}
		s.run.metrics.RecordRejectedSettlement(ctx, label, codeOrInternal(err))
		logRejected(ctx, s.run.logger, "Payment rejected", err,
			logger.AccountID(req.AccountID),
			logger.Amount("amount", req.Amount),
		)
		return nil, err
	}
	committed = payment.ID.String()

	s.run.metrics.RecordSettlement(ctx, c.String(), payment.AdvanceUsed, payment.DebtReduction, payment.ExcessAmount)
	logger.Or(ctx, s.run.logger).Info("Payment settled",
		logger.PaymentID(payment.ID),
		logger.AccountID(account.ID),
		logger.Currency(c.String()),
		logger.Amount("amount", payment.Amount),
		logger.Amount("advance_applied", payment.AdvanceUsed),
		logger.Amount("debt_reduction", payment.DebtReduction),
		logger.Amount("excess", payment.ExcessAmount),
	)
	return settlementResponse(payment, invoice, account, false), nil
}

// claimKey reserves the idempotency key for at most PendingTTL. It returns a
// replayed response when the key already belongs to a committed payment, and
// a release func that records the payment id (or frees the key when id is empty).
func (s *PaymentService) claimKey(ctx context.Context, tenantID uuid.UUID, req SubmitPaymentRequest) (func(context.Context, string), *SettlementResponse, error) {
	noop := func(context.Context, string) {}
	if req.IdempotencyKey == "" {
		return noop, nil, nil
	}

	if replayed, err := s.replay(ctx, tenantID, req, true); err == nil {
		return noop, replayed, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return noop, nil, err
	}
	if s.idempotency == nil {
		return noop, nil, nil
	}

	key := tenantID.String() + ":" + req.IdempotencyKey
	ttl := s.run.opts.IdempotencyTTL
	claimed, err := s.idempotency.Remember(ctx, key, pendingMarker, s.run.opts.PendingTTL)
	if err != nil {
		// the unique index still guards against double settlement
		logger.Or(ctx, s.run.logger).Warn("Idempotency store unavailable", zap.Error(err))
		return noop, nil, nil
	}
	if !claimed {
		return noop, nil, ledger.ErrDuplicateRequest
	}

	return func(ctx context.Context, paymentID string) {
		log := logger.Or(ctx, s.run.logger)
		if err := s.idempotency.Forget(ctx, key); err != nil {
			log.Warn("Failed to release idempotency key", zap.Error(err))
			return
		}
		if paymentID == "" {
			return
		}
		if _, err := s.idempotency.Remember(ctx, key, paymentID, ttl); err != nil {
			log.Warn("Failed to cache idempotency key", zap.Error(err))
		}
	}, nil, nil
}

// replay loads the payment committed under the request's idempotency key.
// A key reused for a different payment, or one still in flight when
// checkInFlight is set, fails with DUPLICATE_REQUEST.
func (s *PaymentService) replay(ctx context.Context, tenantID uuid.UUID, req SubmitPaymentRequest, checkInFlight bool) (*SettlementResponse, error) {
	var resp *SettlementResponse
	err := s.run.read(ctx, "payment.replay", func(ctx context.Context, repos ledger.Repositories) error {
		if checkInFlight && s.idempotency != nil {
			if id, ok, err := s.idempotency.Lookup(ctx, tenantID.String()+":"+req.IdempotencyKey); err == nil && ok && id == pendingMarker {
				return ledger.ErrDuplicateRequest
			}
		}
		p, err := repos.Payments.FindByIdempotencyKey(ctx, tenantID, req.IdempotencyKey)
		if err != nil {
			return err
		}
		if !samePayload(p, req) {
			return ledger.ErrDuplicateRequest.WithCause(fmt.Errorf("idempotency key %q was used for a different payment", req.IdempotencyKey))
		}
		account, err := repos.Accounts.FindByIDForTenant(ctx, tenantID, p.AccountID)
		if err != nil {
			return err
		}
		var invoice *ledger.Invoice
		if p.InvoiceID != nil {
			if invoice, err = repos.Invoices.FindByIDForTenant(ctx, tenantID, *p.InvoiceID); err != nil {
				return err
			}
		}
		resp = settlementResponse(p, invoice, account, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Or(ctx, s.run.logger).Info("Payment replayed", logger.PaymentID(resp.Payment.ID))
	return resp, nil
}

// Cancel reverses a completed payment and marks it cancelled
func (s *PaymentService) Cancel(ctx context.Context, tenantID, paymentID uuid.UUID, req ReversePaymentRequest) (*SettlementResponse, error) {
	return s.reverse(ctx, tenantID, paymentID, ledger.PaymentStatusCancelled, req)
}

// Refund reverses a completed payment and marks it refunded
func (s *PaymentService) Refund(ctx context.Context, tenantID, paymentID uuid.UUID, req ReversePaymentRequest) (*SettlementResponse, error) {
	return s.reverse(ctx, tenantID, paymentID, ledger.PaymentStatusRefunded, req)
}

func (s *PaymentService) reverse(ctx context.Context, tenantID, paymentID uuid.UUID, status ledger.PaymentStatus, req ReversePaymentRequest) (*SettlementResponse, error) {
	var (
		payment *ledger.PaymentRecord
		account *ledger.Account
		invoice *ledger.Invoice
	)
	err := s.run.run(ctx, "payment."+string(status), func(ctx context.Context, repos ledger.Repositories, ev *events) error {
		payment, account, invoice = nil, nil, nil

		var err error
		payment, err = repos.Payments.FindForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		account, err = repos.Accounts.FindForUpdate(ctx, tenantID, payment.AccountID)
		if err != nil {
			return err
		}
		if payment.InvoiceID != nil {
			if invoice, err = repos.Invoices.FindForUpdate(ctx, tenantID, *payment.InvoiceID); err != nil {
				return err
			}
		}

		if err := ledger.ReversePayment(payment, account, invoice, status, req.Reason); err != nil {
			return err
		}

		if err := repos.Accounts.SaveWithLock(ctx, account); err != nil {
			return err
		}
		if invoice != nil {
			if err := repos.Invoices.SaveWithLock(ctx, invoice); err != nil {
				return err
			}
		}
		if err := repos.Payments.SaveWithLock(ctx, payment); err != nil {
			return err
		}
		ev.collect(account, payment)
		if invoice != nil {
			ev.collect(invoice)
		}
		return nil
	})
	if err != nil {
		logRejected(ctx, s.run.logger, "Payment reversal rejected", err, logger.PaymentID(paymentID), zap.String("status", string(status)))
		return nil, err
	}

	logger.Or(ctx, s.run.logger).Info("Payment reversed",
		logger.PaymentID(payment.ID),
		logger.AccountID(account.ID),
		zap.String("status", string(status)),
		logger.Amount("amount", payment.Amount),
	)
	return settlementResponse(payment, invoice, account, false), nil
}

// Get returns one payment
func (s *PaymentService) Get(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	var resp PaymentResponse
	err := s.run.read(ctx, "payment.get", func(ctx context.Context, repos ledger.Repositories) error {
		p, err := repos.Payments.FindByIDForTenant(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		resp = ToPaymentResponse(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListByAccount returns a page of an account's payments
func (s *PaymentService) ListByAccount(ctx context.Context, tenantID, accountID uuid.UUID, q ListPaymentsQuery) (*shared.Paginated[PaymentResponse], error) {
	filter := newFilter(q.Page, q.PageSize, q.OrderBy, q.OrderDir)

	var page shared.Paginated[PaymentResponse]
	err := s.run.read(ctx, "payment.list", func(ctx context.Context, repos ledger.Repositories) error {
		if _, err := repos.Accounts.FindByIDForTenant(ctx, tenantID, accountID); err != nil {
			return err
		}
		payments, total, err := repos.Payments.FindByAccount(ctx, tenantID, accountID, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(mapSlice(payments, ToPaymentResponse), total, filter.Page, filter.Limit())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Preview shows what a payment would do to a debt without touching any balance.
// The debt comes from the invoice remainder when InvoiceID is set, otherwise from DebtAmount.
func (s *PaymentService) Preview(ctx context.Context, tenantID uuid.UUID, req PreviewRequest) (*PreviewResponse, error) {
	if !req.PaymentAmount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "payment amount must be positive")
	}

	var (
		debt decimal.Decimal
		c    valueobject.Currency
	)
	if req.Currency != "" {
		parsed, err := valueobject.ParseCurrency(req.Currency)
		if err != nil {
			return nil, err
		}
		c = parsed
	}

	switch {
	case req.InvoiceID != nil:
		err := s.run.read(ctx, "payment.preview", func(ctx context.Context, repos ledger.Repositories) error {
			inv, err := repos.Invoices.FindByIDForTenant(ctx, tenantID, *req.InvoiceID)
			if err != nil {
				return err
			}
			if c != "" && c != inv.Currency {
				return shared.NewDomainError(shared.CodeCurrencyMismatch,
					fmt.Sprintf("payment in %s cannot settle invoice in %s", c, inv.Currency))
			}
			c = inv.Currency
			debt = inv.RemainingAmount
			return nil
		})
		if err != nil {
			return nil, err
		}
	case req.DebtAmount != nil:
		if req.DebtAmount.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "debt amount cannot be negative")
		}
		debt = *req.DebtAmount
	default:
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "either invoice_id or debt_amount is required")
	}

	if c != "" {
		if err := valueobject.ValidateAmount(req.PaymentAmount, c); err != nil {
			return nil, err
		}
	}
	return &PreviewResponse{Currency: c, PaymentPreview: ledger.PreviewPayment(debt, req.PaymentAmount)}, nil
}

func resolveCurrency(requested string, invoice *ledger.Invoice) (valueobject.Currency, error) {
	if requested == "" {
		return invoice.Currency, nil
	}
	c, err := valueobject.ParseCurrency(requested)
	if err != nil {
		return "", err
	}
	if invoice != nil && invoice.Currency != c {
		return "", shared.NewDomainError(shared.CodeCurrencyMismatch,
			fmt.Sprintf("payment in %s cannot settle invoice in %s", c, invoice.Currency))
	}
	return c, nil
}

// samePayload reports whether req asks for the payment p already records.
// An empty currency or method means the invoice currency and cash.
func samePayload(p *ledger.PaymentRecord, req SubmitPaymentRequest) bool {
	if p.AccountID != req.AccountID || !p.Amount.Equal(req.Amount) || !sameInvoice(p.InvoiceID, req.InvoiceID) {
		return false
	}
	if req.Currency != "" {
		if c, err := valueobject.ParseCurrency(req.Currency); err != nil || c != p.Currency {
			return false
		}
	}
	method := ledger.PaymentMethod(req.Method)
	if method == "" {
		method = ledger.PaymentMethodCash
	}
	applyAdvance := req.ApplyAdvance == nil || *req.ApplyAdvance
	return p.Method == method && p.ApplyAdvance == applyAdvance
}

func sameInvoice(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func settlementResponse(p *ledger.PaymentRecord, inv *ledger.Invoice, account *ledger.Account, replayed bool) *SettlementResponse {
	resp := &SettlementResponse{
		Payment:  ToPaymentResponse(p),
		Balances: toBalances(account),
		Replayed: replayed,
	}
	if inv != nil {
		ir := ToInvoiceResponse(inv)
		resp.Invoice = &ir
	}
	return resp
}

func codeOrInternal(err error) string {
	if code := shared.ErrorCode(err); code != "" {
		return code
	}
	return "INTERNAL"
}
