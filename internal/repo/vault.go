package repo

import (
	"VaultSync/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// VaultRepository — доступ к хранилищам.
type VaultRepository interface {
	// CreateWithOwner создаёт хранилище и членство OWNER в одной транзакции.
	CreateWithOwner(ctx context.Context, vault *model.Vault, ownerID string) error
	GetByID(ctx context.Context, id string) (*model.Vault, error)
	// ListForUser возвращает хранилища, в которых состоит пользователь, с его ролью.
	ListForUser(ctx context.Context, userID string) ([]model.VaultSummary, error)
}

type vaultRepo struct {
	db *gorm.DB
}

// NewVaultRepository создаёт gorm-реализацию VaultRepository.
func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepo{db: db}
}

func (r *vaultRepo) CreateWithOwner(ctx context.Context, vault *model.Vault, ownerID string) error {
	ensureID(&vault.ID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vault).Error; err != nil {
			return err
		}
		owner := &model.Membership{VaultID: vault.ID, UserID: ownerID, Role: model.RoleOwner}
		ensureID(&owner.ID)
		return tx.Create(owner).Error
	})
}

func (r *vaultRepo) GetByID(ctx context.Context, id string) (*model.Vault, error) {
	var v model.Vault
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vaultRepo) ListForUser(ctx context.Context, userID string) ([]model.VaultSummary, error) {
	type row struct {
		ID          string
		Name        string
		Description string
		CreatedAt   time.Time
		Role        model.Role
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("vaults").
		Select("vaults.id, vaults.name, vaults.description, vaults.created_at, memberships.role AS role").
		Joins("JOIN memberships ON memberships.vault_id = vaults.id").
		Where("memberships.user_id = ?", userID).
		Order("vaults.created_at ASC, vaults.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.VaultSummary, 0, len(rows))
	for _, rw := range rows {
		out = append(out, model.VaultSummary{
			Vault: model.Vault{ID: rw.ID, Name: rw.Name, Description: rw.Description, CreatedAt: rw.CreatedAt},
			Role:  rw.Role,
		})
	}
	return out, nil
}
