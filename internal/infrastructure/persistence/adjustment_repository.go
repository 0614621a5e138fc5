package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAdjustmentRepository implements the append-only ledger.AdjustmentRepository
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

func (r *GormAdjustmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.BalanceAdjustment, error) {
	var model models.BalanceAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

// FindByAccount returns the audit trail of an account, newest first by default
func (r *GormAdjustmentRepository) FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]ledger.BalanceAdjustment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BalanceAdjustmentModel{}).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID)
	if kind, ok := filter.Filters["ledger"].(string); ok && kind != "" {
		query = query.Where("ledger = ?", kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BalanceAdjustmentModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, AdjustmentSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]ledger.BalanceAdjustment, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

// FindReversalOf returns the entry reversing originalID, or NOT_FOUND
func (r *GormAdjustmentRepository) FindReversalOf(ctx context.Context, tenantID, originalID uuid.UUID) (*ledger.BalanceAdjustment, error) {
	var model models.BalanceAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reversal_of = ?", tenantID, originalID).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

// Create appends an entry. A second reversal of the same entry violates the
// unique index and surfaces as ALREADY_EXISTS.
func (r *GormAdjustmentRepository) Create(ctx context.Context, adjustment *ledger.BalanceAdjustment) error {
	return TranslateError(r.db.WithContext(ctx).Create(models.BalanceAdjustmentModelFromDomain(adjustment)).Error)
}
