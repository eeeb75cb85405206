package repo

import (
	"VaultSync/internal/model"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// newTestDB инициализирует in-memory SQLite (modernc.org/sqlite) для тестов репозитория.
// У каждого теста своя база, чтобы данные тестов не пересекались.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	// Миграции для всех моделей, используемых в репозиториях
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

// mkUser — хелпер создания пользователя
func mkUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	u, err := NewUserRepository(db).CreateUser(context.Background(), &model.User{Email: email, Name: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}
