package persistence

import (
	"context"
	"strings"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByIDForTenant finds an account by ID within a tenant
func (r *GormAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

// FindForUpdate loads an account and holds a row lock until the transaction ends
func (r *GormAccountRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists accounts. filter.Filters["search"] matches code or name.
func (r *GormAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) ([]ledger.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AccountModel{}).Where("tenant_id = ?", tenantID)
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if search, ok := filter.Filters["search"].(string); ok && strings.TrimSpace(search) != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AccountModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, AccountSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]ledger.Account, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts, total, nil
}

// ExistsByCode checks whether the tenant already uses code
func (r *GormAccountRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AccountModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new account
func (r *GormAccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	return TranslateError(r.db.WithContext(ctx).Create(models.AccountModelFromDomain(account)).Error)
}

// SaveWithLock writes balances guarded by the version read with the account.
// On success the in-memory version moves forward to match the row.
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	columns := model.BalanceColumns()
	columns["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", account.ID, account.TenantID, account.Version).
		Updates(columns)
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errStale("account")
	}
	account.IncrementVersion()
	return nil
}
