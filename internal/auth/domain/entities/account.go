package entities

import (
	"errors"
	"strings"
	"time"
)

// Ошибки домена учетных записей.
var (
	ErrEmptyAccountID  = errors.New("account ID cannot be empty")
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("account with this email already exists")
	ErrInvalidRole     = errors.New("invalid role")
)

// Role - роль учетной записи.
type Role string

// Поддерживаемые роли.
const (
	RoleUser  Role = "USER"
	RoleAgent Role = "AGENT"
	RoleAdmin Role = "ADMIN"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

// SelfService сообщает, может ли пользователь выбрать роль при регистрации.
func (r Role) SelfService() bool {
	return r == RoleUser || r == RoleAgent
}

// String реализует fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ParseRole разбирает роль без учета регистра. Пустая строка дает RoleUser.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleUser, nil
	}
	r := Role(strings.ToUpper(s))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Account - учетная запись с данными, нужными для аутентификации.
type Account struct {
	ID                 string
	Email              string
	PasswordHash       string
	Role               Role
	Name               string
	Phone              string
	RefreshFingerprint string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasSession сообщает, есть ли у учетной записи действующий refresh-токен.
func (a *Account) HasSession() bool {
	return a.RefreshFingerprint != ""
}

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям и в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
