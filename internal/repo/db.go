package repo

import (
	"VaultSync/internal/model"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Models — все модели, участвующие в миграциях.
func Models() []any {
	return []any{
		&model.User{},
		&model.Vault{},
		&model.Membership{},
		&model.Source{},
		&model.Annotation{},
		&model.AuditLogEntry{},
	}
}

// Open открывает подключение к БД по DSN: postgres://… или postgresql://… — PostgreSQL,
// всё остальное — SQLite через modernc.org/sqlite.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, cfg)
}

// InitDB открывает БД и накатывает миграции.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
