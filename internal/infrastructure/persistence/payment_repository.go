package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements ledger.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.PaymentRecord, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormPaymentRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.PaymentRecord, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey returns the payment recorded under key, or NOT_FOUND
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*ledger.PaymentRecord, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormPaymentRepository) FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]ledger.PaymentRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, PaymentSortFields, "paid_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]ledger.PaymentRecord, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, total, nil
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment *ledger.PaymentRecord) error {
	return TranslateError(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error)
}

// SaveWithLock persists a status change. Allocation columns are never rewritten.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *ledger.PaymentRecord) error {
	columns := models.PaymentModelFromDomain(payment).StatusColumns()
	columns["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", payment.ID, payment.TenantID, payment.Version).
		Updates(columns)
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errStale("payment")
	}
	payment.IncrementVersion()
	return nil
}
