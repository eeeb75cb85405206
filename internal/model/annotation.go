package model

import (
	"VaultSync/internal/anchor"
	"time"
)

// Annotation — заметка пользователя к источнику, опционально привязанная к фрагменту текста.
type Annotation struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	SourceID string `gorm:"not null;type:uuid;index" json:"source_id"`
	UserID   string `gorm:"not null;type:uuid" json:"user_id"`
	Content  string `gorm:"type:text;not null" json:"content"`

	Position anchor.Position `gorm:"type:text" json:"position"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}
