package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountFilter narrows account listings
type AccountFilter struct {
	shared.Filter
	Kind AccountKind
}

// AccountRepository persists accounts.
// FindForUpdate must lock the row until the surrounding transaction ends.
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]Account, int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Create(ctx context.Context, account *Account) error
	// SaveWithLock writes balances only if the stored version still matches,
	// otherwise it fails with CONCURRENT_MODIFICATION.
	SaveWithLock(ctx context.Context, account *Account) error
}

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	Status InvoiceStatus
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error)
	Create(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository persists payment records
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PaymentRecord, error)
	FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*PaymentRecord, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*PaymentRecord, error)
	FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]PaymentRecord, int64, error)
	Create(ctx context.Context, payment *PaymentRecord) error
	SaveWithLock(ctx context.Context, payment *PaymentRecord) error
}

// AdjustmentRepository appends and reads audit entries. There is no update or delete.
type AdjustmentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BalanceAdjustment, error)
	FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]BalanceAdjustment, int64, error)
	FindReversalOf(ctx context.Context, tenantID, originalID uuid.UUID) (*BalanceAdjustment, error)
	Create(ctx context.Context, adjustment *BalanceAdjustment) error
}

// Repositories groups the repositories bound to one transaction
type Repositories struct {
	Accounts    AccountRepository
	Invoices    InvoiceRepository
	Payments    PaymentRepository
	Adjustments AdjustmentRepository
}

// UnitOfWork runs fn inside a single database transaction.
// Returning an error from fn rolls back every write made through repos.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Repositories returns non-transactional repositories for reads
	Repositories() Repositories
}
