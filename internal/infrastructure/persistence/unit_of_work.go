package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormUnitOfWork implements ledger.UnitOfWork on a GORM transaction
type GormUnitOfWork struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewUnitOfWork creates a unit of work. On PostgreSQL lockTimeout bounds how
// long a transaction waits for a row lock before failing with 55P03.
func NewUnitOfWork(db *gorm.DB, lockTimeout time.Duration) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, lockTimeout: lockTimeout}
}

// Do runs fn in a transaction with repositories bound to it
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos ledger.Repositories) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(ctx, repositoriesFor(tx))
	})
	return TranslateError(err)
}

// Repositories returns repositories on the base connection
func (u *GormUnitOfWork) Repositories() ledger.Repositories {
	return repositoriesFor(u.db)
}

func repositoriesFor(db *gorm.DB) ledger.Repositories {
	return ledger.Repositories{
		Accounts:    NewGormAccountRepository(db),
		Invoices:    NewGormInvoiceRepository(db),
		Payments:    NewGormPaymentRepository(db),
		Adjustments: NewGormAdjustmentRepository(db),
	}
}
