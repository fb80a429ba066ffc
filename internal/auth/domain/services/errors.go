package services

import (
	"errors"
	"fmt"
)

// Классы ошибок, которые видит вызывающая сторона Auth Core.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Публичные ошибки авторизации. Сообщение у каждой фиксировано.
var (
	ErrInvalidCredentials error = &unauthorizedError{msg: "invalid credentials"}
	ErrInvalidToken       error = &unauthorizedError{msg: "invalid token"}
)

type unauthorizedError struct {
	msg string
}

func (e *unauthorizedError) Error() string { return e.msg }

func (e *unauthorizedError) Unwrap() error { return ErrUnauthorized }

// ValidationError описывает некорректное значение конкретного поля.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError создает ошибку валидации поля.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is позволяет сравнивать с ErrValidation через errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PublicMessage возвращает безопасное для клиента сообщение об ошибке.
func PublicMessage(err error) string {
	var vErr *ValidationError
	var uErr *unauthorizedError
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.As(err, &uErr):
		return uErr.msg
	case errors.Is(err, ErrConflict):
		return "account with this email already exists"
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	default:
		return ErrInternal.Error()
	}
}
