package repo

// UserContextStore абстракция для хранения контекста пользователя:
// email последнего входа и текущее хранилище.
type UserContextStore interface {
	SaveEmail(email string) error
	LoadEmail() (string, error)
	SaveVault(vaultID string) error
	LoadVault() (string, error)
}
