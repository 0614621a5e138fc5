package event

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LedgerActivityLogger writes one structured log line per ledger event.
// Balance changes log at info, everything else at debug.
type LedgerActivityLogger struct {
	logger *zap.Logger
}

// NewLedgerActivityLogger creates the handler. base is used when the context carries no logger.
func NewLedgerActivityLogger(base *zap.Logger) *LedgerActivityLogger {
	return &LedgerActivityLogger{logger: base}
}

// EventTypes subscribes to every ledger event
func (h *LedgerActivityLogger) EventTypes() []string {
	return []string{
		ledger.EventTypeAccountCreated,
		ledger.EventTypeAccountBalanceChanged,
		ledger.EventTypeBalanceAdjusted,
		ledger.EventTypeDebtOffset,
		ledger.EventTypeInvoiceCreated,
		ledger.EventTypeInvoicePaymentApplied,
		ledger.EventTypeInvoiceSettled,
		ledger.EventTypePaymentRecorded,
		ledger.EventTypePaymentReversed,
	}
}

// Handle logs the event
func (h *LedgerActivityLogger) Handle(ctx context.Context, event shared.DomainEvent) error {
	log := logger.Or(ctx, h.logger).With(
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)

	switch e := event.(type) {
	case *ledger.AccountBalanceChangedEvent:
		log.Info("Account balance changed",
			logger.AccountID(e.AccountID),
			zap.String("ledger", string(e.Ledger)),
			logger.Currency(string(e.Currency)),
			logger.Amount("before", e.BeforeBalance),
			logger.Amount("after", e.AfterBalance),
			zap.String("reason", e.Reason),
		)
	case *ledger.BalanceAdjustedEvent:
		log.Info("Balance adjustment recorded",
			logger.AccountID(e.AccountID),
			zap.String("adjustment_id", e.AdjustmentID.String()),
			zap.String("type", string(e.Type)),
			zap.String("source", string(e.Source)),
			logger.Amount("amount", e.Amount),
		)
	case *ledger.PaymentRecordedEvent:
		log.Info("Payment recorded",
			logger.PaymentID(e.PaymentID),
			logger.AccountID(e.AccountID),
			logger.Currency(string(e.Currency)),
			logger.Amount("amount", e.Amount),
			logger.Amount("advance_used", e.AdvanceUsed),
			logger.Amount("debt_reduction", e.DebtReduction),
			logger.Amount("excess", e.ExcessAmount),
		)
	case *ledger.PaymentReversedEvent:
		log.Info("Payment reversed",
			logger.PaymentID(e.PaymentID),
			zap.String("status", string(e.Status)),
			zap.String("reason", e.Reason),
		)
	case *ledger.InvoiceSettledEvent:
		log.Info("Invoice settled", logger.InvoiceID(e.InvoiceID), logger.AccountID(e.AccountID))
	default:
		log.Debug("Ledger event")
	}
	return nil
}

var _ shared.EventHandler = (*LedgerActivityLogger)(nil)
