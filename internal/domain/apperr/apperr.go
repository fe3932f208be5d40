// Package apperr описывает таксономию ошибок приложения.
// Слои ниже оборачивают эти ошибки через %w, транспортный слой
// распознаёт их через errors.Is / errors.As и выбирает HTTP статус.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrTransactionFailure = errors.New("transaction failed")
	ErrDependencyFailure  = errors.New("dependency failure")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError - некорректный ввод, Fields: поле -> причина
type ValidationError struct {
	Fields map[string]string
}

// NewValidation создаёт ошибку валидации с одним полем
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// Add добавляет поле; возвращает саму ошибку для цепочек
func (e *ValidationError) Add(field, reason string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
	return e
}

// HasFields true, если есть хотя бы одно поле
func (e *ValidationError) HasFields() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AuthKind - разновидность ошибки аутентификации
type AuthKind string

const (
	MissingCredential AuthKind = "missing_credential"
	InvalidCredential AuthKind = "invalid_credential"
	// InvalidLogin - неверная пара email/пароль при входе
	InvalidLogin      AuthKind = "invalid_login"
	ExpiredCredential AuthKind = "expired_credential"
	UserNotFound      AuthKind = "user_not_found"
	Unauthorized      AuthKind = "unauthorized"
)

var authMessages = map[AuthKind]string{
	MissingCredential: "missing token",
	InvalidCredential: "invalid token",
	InvalidLogin:      "invalid email or password",
	ExpiredCredential: "token expired",
	UserNotFound:      "user not found",
	Unauthorized:      "unauthorized",
}

// AuthError - ошибка аутентификации определённого вида
type AuthError struct {
	Kind AuthKind
	Err  error
}

// Auth создаёт AuthError, err может быть nil
func Auth(kind AuthKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// Message - текст для клиента без внутренних подробностей
func (e *AuthError) Message() string {
	if msg, ok := authMessages[e.Kind]; ok {
		return msg
	}
	return "unauthorized"
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message(), e.Err)
	}
	return e.Message()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is сравнивает по виду ошибки, чтобы работало errors.Is(err, apperr.Auth(apperr.ExpiredCredential, nil))
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsAuth проверяет, что в цепочке есть AuthError, и возвращает её
func IsAuth(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsValidation проверяет, что в цепочке есть ValidationError
func IsValidation(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
