package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"VaultSync/internal/cli/repo"
)

// AuthFSStore — файловое хранилище токена и контекста пользователя для CLI.
// TokenFile — путь к файлу токена; пусто — <config dir>/vaultsync/token.
// Остальные файлы лежат рядом с токеном.
type AuthFSStore struct {
	TokenFile string
}

var (
	_ repo.TokenStore       = AuthFSStore{}
	_ repo.UserContextStore = AuthFSStore{}
)

func (s AuthFSStore) tokenPath() (string, error) {
	p := s.TokenFile
	if p == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(dir, "vaultsync", "token")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", err
	}
	return p, nil
}

func (s AuthFSStore) sibling(name string) (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), name), nil
}

func write(p func() (string, error), value string) error {
	path, err := p()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(value), 0o600)
}

// read читает файл и обрезает завершающие переводы строки/пробелы
func read(p func() (string, error), what string) (string, error) {
	path, err := p()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	v := strings.TrimRight(string(b), "\r\n\t ")
	if v == "" {
		return "", errors.New("empty " + what)
	}
	return v, nil
}

// Save сохраняет auth‑токен в файл.
func (s AuthFSStore) Save(token string) error {
	return write(s.tokenPath, token)
}

// Load читает auth‑токен из файла.
func (s AuthFSStore) Load() (string, error) {
	return read(s.tokenPath, "token file")
}

// Clear удаляет токен (выход).
func (s AuthFSStore) Clear() error {
	p, err := s.tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s AuthFSStore) emailPath() (string, error) { return s.sibling("last_email") }

func (s AuthFSStore) vaultPath() (string, error) { return s.sibling("current_vault") }

// SaveEmail сохраняет email последнего входа.
func (s AuthFSStore) SaveEmail(email string) error {
	if email == "" {
		return errors.New("empty email")
	}
	return write(s.emailPath, email)
}

// LoadEmail читает email последнего входа.
func (s AuthFSStore) LoadEmail() (string, error) {
	return read(s.emailPath, "stored email")
}

// SaveVault запоминает текущее хранилище для команд без явного vault id.
func (s AuthFSStore) SaveVault(vaultID string) error {
	if vaultID == "" {
		return errors.New("empty vault id")
	}
	return write(s.vaultPath, vaultID)
}

// LoadVault читает текущее хранилище.
func (s AuthFSStore) LoadVault() (string, error) {
	return read(s.vaultPath, "current vault")
}
