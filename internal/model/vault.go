package model

import "time"

// Role — роль пользователя внутри хранилища.
type Role string

const (
	RoleOwner       Role = "OWNER"
	RoleContributor Role = "CONTRIBUTOR"
	RoleViewer      Role = "VIEWER"
)

// ParseRole разбирает роль из строки; неизвестные значения дают VIEWER.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleOwner, RoleContributor, RoleViewer:
		return Role(s)
	default:
		return RoleViewer
	}
}

// CanWrite — может ли роль добавлять источники и аннотации.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleContributor
}

// CanInvite — может ли роль приглашать других участников.
func (r Role) CanInvite() bool {
	return r == RoleOwner || r == RoleContributor
}

// Vault — совместное рабочее пространство.
type Vault struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Membership — роль пользователя в хранилище. Пара (user_id, vault_id) уникальна.
type Membership struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string    `gorm:"not null;type:uuid;uniqueIndex:idx_membership_user_vault" json:"user_id"`
	VaultID  string    `gorm:"not null;type:uuid;uniqueIndex:idx_membership_user_vault;index" json:"vault_id"`
	Role     Role      `gorm:"not null;type:varchar(16)" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// VaultSummary — хранилище вместе с ролью запрашивающего пользователя.
type VaultSummary struct {
	Vault
	Role Role `json:"role"`
}

// Member — участник хранилища в списке members.
type Member struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
