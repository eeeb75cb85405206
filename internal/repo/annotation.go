package repo

import (
	"VaultSync/internal/model"
	"context"

	"gorm.io/gorm"
)

// AnnotationRepository — доступ к аннотациям источников.
type AnnotationRepository interface {
	Create(ctx context.Context, a *model.Annotation) error
	// ListBySource возвращает аннотации в порядке создания вместе с автором.
	ListBySource(ctx context.Context, sourceID string) ([]model.Annotation, error)
}

type annotationRepo struct {
	db *gorm.DB
}

// NewAnnotationRepository создаёт gorm-реализацию AnnotationRepository.
func NewAnnotationRepository(db *gorm.DB) AnnotationRepository {
	return &annotationRepo{db: db}
}

func (r *annotationRepo) Create(ctx context.Context, a *model.Annotation) error {
	ensureID(&a.ID)
	return r.db.WithContext(ctx).Omit("User").Create(a).Error
}

func (r *annotationRepo) ListBySource(ctx context.Context, sourceID string) ([]model.Annotation, error) {
	var list []model.Annotation
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("source_id = ?", sourceID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
