package model

import (
	"time"

	"gorm.io/datatypes"
)

// SourceMetadata — данные, извлечённые со страницы источника.
type SourceMetadata struct {
	Description string `json:"description,omitempty"`
}

// Source — ссылка или файл, добавленные в хранилище.
type Source struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	VaultID string `gorm:"not null;type:uuid;index" json:"vault_id"`

	URL     string `json:"url,omitempty"`
	FileURL string `json:"file_url,omitempty"`
	FileKey string `json:"file_key,omitempty"`
	Title   string `gorm:"not null" json:"title"`

	Metadata datatypes.JSONType[SourceMetadata] `json:"metadata"`

	// Content — plain-text содержимое, относительно которого считаются смещения аннотаций.
	Content string `gorm:"type:text" json:"content,omitempty"`

	AddedByID string `gorm:"not null;type:uuid" json:"added_by_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
