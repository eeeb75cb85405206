package model

import (
	"time"

	"gorm.io/datatypes"
)

// Действия журнала аудита.
const (
	ActionVaultCreated    = "VAULT_CREATED"
	ActionUserInvited     = "USER_INVITED"
	ActionSourceAdded     = "SOURCE_ADDED"
	ActionSourceUpdated   = "SOURCE_UPDATED"
	ActionAnnotationAdded = "ANNOTATION_ADDED"
)

// AuditLogEntry — запись журнала аудита. Только добавление, без изменений и удаления.
type AuditLogEntry struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	VaultID   string         `gorm:"not null;type:uuid;index" json:"vault_id"`
	ActorID   string         `gorm:"not null;type:uuid" json:"actor_id"`
	Action    string         `gorm:"not null;type:varchar(32)" json:"action"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
