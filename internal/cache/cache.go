// Package cache — advisory TTL-кэш для списков хранилищ и источников.
// Недоступность кэша влияет только на задержку: вызывающий код обязан
// уметь прочитать данные из основного хранилища.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL — время жизни закэшированных списков.
const DefaultTTL = 300 * time.Second

// ErrUnavailable возвращается реализациями, когда бэкенд кэша недоступен.
var ErrUnavailable = errors.New("cache unavailable")

// Cache — минимальный контракт кэша.
type Cache interface {
	// Get возвращает значение и признак попадания. Промах не является ошибкой.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern удаляет ключи по glob-шаблону (`*`, `?`).
	DeletePattern(ctx context.Context, pattern string) error
}

// VaultsKey — ключ списка хранилищ пользователя.
func VaultsKey(userID string) string { return "vaults:" + userID }

// VaultsPattern — шаблон для инвалидации всех производных ключей пользователя.
func VaultsPattern(userID string) string { return VaultsKey(userID) + "*" }

// SourcesKey — ключ списка источников хранилища.
func SourcesKey(vaultID string) string { return "sources:" + vaultID }

// Nop — кэш, который ничего не хранит. Используется при CACHE_DISABLED.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error { return nil }
func (Nop) DeletePattern(context.Context, string) error { return nil }
