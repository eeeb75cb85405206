package service

import (
	"VaultSync/internal/model"
	"VaultSync/internal/repo"
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService — регистрация и вход.
type UserService struct {
	repo repo.UserRepository
}

func NewUserService(r repo.UserRepository) *UserService {
	return &UserService{repo: r}
}

// NormalizeEmail приводит email к виду хранения: без пробелов, в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт пользователя. Занятый email — Conflict email_taken.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, missingField("email")
	}
	if password == "" {
		return nil, missingField("password")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, newError(ErrValidation, ReasonInvalidEmail, "invalid email address")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.IndexByte(email, '@')]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, &model.User{Email: email, Name: name, PasswordHash: string(hash)})
	if errors.Is(err, repo.ErrEmailTaken) {
		return nil, newError(ErrConflict, ReasonEmailTaken, "user already exists")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login проверяет пару email/пароль.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	invalid := newError(ErrUnauthorized, ReasonInvalidCredentials, "invalid credentials")
	user, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	return user, nil
}

// Get возвращает пользователя по id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, unauthorized()
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, ReasonUserNotFound, "user not found")
	}
	return user, err
}
