package repo

import (
	"VaultSync/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// SourceRepository — доступ к источникам хранилища.
type SourceRepository interface {
	Create(ctx context.Context, s *model.Source) error
	GetByID(ctx context.Context, id string) (*model.Source, error)
	// ListByVault возвращает источники хранилища в порядке добавления.
	ListByVault(ctx context.Context, vaultID string) ([]model.Source, error)
	// UpdateContent заменяет plain-text содержимое и возвращает обновлённую запись.
	UpdateContent(ctx context.Context, id, content string) (*model.Source, error)
}

type sourceRepo struct {
	db *gorm.DB
}

// NewSourceRepository создаёт gorm-реализацию SourceRepository.
func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepo{db: db}
}

func (r *sourceRepo) Create(ctx context.Context, s *model.Source) error {
	ensureID(&s.ID)
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sourceRepo) GetByID(ctx context.Context, id string) (*model.Source, error) {
	var s model.Source
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sourceRepo) ListByVault(ctx context.Context, vaultID string) ([]model.Source, error) {
	var list []model.Source
	err := r.db.WithContext(ctx).
		Where("vault_id = ?", vaultID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *sourceRepo) UpdateContent(ctx context.Context, id, content string) (*model.Source, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Source{}).
		Where("id = ?", id).
		Updates(map[string]any{"content": content, "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}
