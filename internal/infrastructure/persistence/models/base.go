package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel provides the identity, timestamp and optimistic-lock
// columns shared by every aggregate table. Tenant columns are declared on
// each model so they can take part in composite unique indexes.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

func aggregateFromDomain(t shared.TenantAggregateRoot) AggregateModel {
	return AggregateModel{
		ID:        t.ID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Version:   t.Version,
	}
}

func (m AggregateModel) tenantRoot(tenantID uuid.UUID, createdBy *uuid.UUID) shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		TenantID:  tenantID,
		CreatedBy: createdBy,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
