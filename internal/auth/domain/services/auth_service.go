package services

import (
	"time"

	"estatehub/internal/auth/domain/entities"
)

// Ограничения на пароль. Верхняя граница совпадает с пределом bcrypt.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// TokenPair - пара выданных токенов.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// PublicAccount - публичное представление учетной записи.
type PublicAccount struct {
	Name  string
	Email string
	Role  entities.Role
}

// NewPublicAccount строит публичное представление без секретных полей.
func NewPublicAccount(a *entities.Account) PublicAccount {
	return PublicAccount{Name: a.Name, Email: a.Email, Role: a.Role}
}

// AuthResult - результат успешных register, login и refresh.
type AuthResult struct {
	Tokens  TokenPair
	Account PublicAccount
}

// RegisterInput - данные для регистрации. Role может быть пустой.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
}
