package services

import (
	"errors"
	"time"

	"estatehub/internal/auth/domain/entities"
)

// Ошибки работы с токенами и паролями.
var (
	ErrTokenGeneration = errors.New("failed to generate token")
	ErrHashingFailed   = errors.New("failed to hash password")
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// TokenKind различает access и refresh токены.
type TokenKind string

// Виды токенов.
const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenClaims - проверенное содержимое токена.
type TokenClaims struct {
	Subject   string
	Role      entities.Role
	Kind      TokenKind
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
