package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements ledger.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

// FindForUpdate loads an invoice and holds a row lock until the transaction ends
func (r *GormInvoiceRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, TranslateError(err)
	}
	return model.ToDomain(), nil
}

// FindByAccount lists an account's invoices, optionally by status
func (r *GormInvoiceRepository) FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter ledger.InvoiceFilter) ([]ledger.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, InvoiceSortFields, "issued_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]ledger.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, total, nil
}

func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND number = ?", tenantID, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *ledger.Invoice) error {
	return TranslateError(r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error)
}

// SaveWithLock writes the settlement columns guarded by version
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *ledger.Invoice) error {
	columns := models.InvoiceModelFromDomain(invoice).SettlementColumns()
	columns["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", invoice.ID, invoice.TenantID, invoice.Version).
		Updates(columns)
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errStale("invoice")
	}
	invoice.IncrementVersion()
	return nil
}
