package repo

import (
	"VaultSync/internal/model"
	"context"

	"gorm.io/gorm"
)

// AuditRepository — журнал аудита, только добавление.
type AuditRepository interface {
	Append(ctx context.Context, e *model.AuditLogEntry) error
	ListByVault(ctx context.Context, vaultID string) ([]model.AuditLogEntry, error)
}

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepository создаёт gorm-реализацию AuditRepository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Append(ctx context.Context, e *model.AuditLogEntry) error {
	ensureID(&e.ID)
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *auditRepo) ListByVault(ctx context.Context, vaultID string) ([]model.AuditLogEntry, error) {
	var list []model.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("vault_id = ?", vaultID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
