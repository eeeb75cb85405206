package service

import (
	"errors"
	"fmt"
)

// Виды ошибок сервисного слоя. Проверяются через errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("unavailable")
)

// Машиночитаемые причины (поле reason ответа).
const (
	ReasonUnauthorized         = "unauthorized"
	ReasonInvalidCredentials   = "invalid_credentials"
	ReasonEmailTaken           = "email_taken"
	ReasonInvalidEmail         = "invalid_email"
	ReasonMissingField         = "missing_field"
	ReasonInvalidURL           = "invalid_url"
	ReasonInvalidPosition      = "invalid_position"
	ReasonNotAMember           = "not_a_member"
	ReasonInsufficientRole     = "insufficient_role"
	ReasonOwnerRoleNeedsOwner  = "owner_role_requires_owner"
	ReasonUserNotRegistered    = "user_not_registered"
	ReasonAlreadyMember        = "already_member"
	ReasonSelfInvite           = "self_invite"
	ReasonVaultNotFound        = "vault_not_found"
	ReasonSourceNotFound       = "source_not_found"
	ReasonUserNotFound         = "user_not_found"
	ReasonStorageNotConfigured = "storage_not_configured"
	ReasonFileTooLarge         = "file_too_large"
)

// Error — ошибка сервиса: вид, причина и сообщение для пользователя.
type Error struct {
	Kind    error
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

// ReasonCode — причина для websocket-ответов.
func (e *Error) ReasonCode() string { return e.Reason }

func newError(kind error, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func unauthorized() *Error {
	return newError(ErrUnauthorized, ReasonUnauthorized, "authentication required")
}

func missingField(name string) *Error {
	return newError(ErrValidation, ReasonMissingField, name+" is required")
}

// ReasonOf достаёт причину из ошибки сервиса; пустая строка для прочих ошибок.
func ReasonOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
