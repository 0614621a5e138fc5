package ledger

import (
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Dependencies are the ports the ledger use cases run on
type Dependencies struct {
	UnitOfWork  ledger.UnitOfWork
	Publisher   shared.EventPublisher
	Idempotency shared.IdempotencyStore
	Metrics     *telemetry.LedgerMetrics
	Logger      *zap.Logger
	Options     Options
}

// Services bundles the ledger application services
type Services struct {
	Accounts    *AccountService
	Invoices    *InvoiceService
	Payments    *PaymentService
	Adjustments *AdjustmentService
}

// NewServices wires every service to one transaction runner
func NewServices(deps Dependencies) *Services {
	r := newRunner(deps.UnitOfWork, deps.Publisher, deps.Metrics, deps.Logger, deps.Options)
	return &Services{
		Accounts:    newAccountService(r),
		Invoices:    newInvoiceService(r),
		Payments:    newPaymentService(r, deps.Idempotency),
		Adjustments: newAdjustmentService(r),
	}
}
