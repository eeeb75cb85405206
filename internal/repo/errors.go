package repo

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyMember — пара (user_id, vault_id) уже существует.
	ErrAlreadyMember = errors.New("user is already a member of the vault")
	// ErrEmailTaken — пользователь с таким email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
)

const pgUniqueViolation = "23505"

// isUniqueViolation распознаёт нарушение уникального индекса для PostgreSQL
// и SQLite (modernc не переводится в gorm.ErrDuplicatedKey).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
