package repo

import (
	"VaultSync/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// MembershipRepository — роли пользователей в хранилищах.
type MembershipRepository interface {
	// GetRole возвращает роль пользователя; ok == false, если членства нет.
	GetRole(ctx context.Context, userID, vaultID string) (role model.Role, ok bool, err error)
	// Create добавляет членство; существующая пара даёт ErrAlreadyMember.
	Create(ctx context.Context, m *model.Membership) error
	ListMembers(ctx context.Context, vaultID string) ([]model.Member, error)
}

type membershipRepo struct {
	db *gorm.DB
}

// NewMembershipRepository создаёт gorm-реализацию MembershipRepository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) GetRole(ctx context.Context, userID, vaultID string) (model.Role, bool, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND vault_id = ?", userID, vaultID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Role, true, nil
}

func (r *membershipRepo) Create(ctx context.Context, m *model.Membership) error {
	ensureID(&m.ID)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *membershipRepo) ListMembers(ctx context.Context, vaultID string) ([]model.Member, error) {
	var list []model.Membership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("vault_id = ?", vaultID).
		Order("joined_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(list))
	for _, m := range list {
		mem := model.Member{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
		if m.User != nil {
			mem.Name = m.User.Name
			mem.Email = m.User.Email
		}
		out = append(out, mem)
	}
	return out, nil
}
