package persistence

import (
	"errors"
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL error codes the ledger reacts to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// TranslateError maps driver errors onto domain errors. Lock contention and
// serialization failures become CONCURRENT_MODIFICATION so callers can retry,
// and unique violations become ALREADY_EXISTS. Other errors pass through.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return shared.ErrConcurrentModification.WithCause(err)
		case pgUniqueViolation:
			return shared.ErrAlreadyExists.WithCause(err)
		}
		return err
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return shared.ErrAlreadyExists.WithCause(err)
	}
	if strings.Contains(err.Error(), "database is locked") {
		return shared.ErrConcurrentModification.WithCause(err)
	}
	return err
}

func errStale(what string) error {
	return shared.NewDomainError(shared.CodeConcurrentModification, what+" was modified by another transaction")
}
