// Package dto содержит объекты передачи данных HTTP API сервиса аутентификации.
package dto

import (
	"time"

	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
)

// RegisterRequest содержит данные для регистрации пользователя.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Input переводит запрос во входные данные Auth Core.
func (r *RegisterRequest) Input() services.RegisterInput {
	return services.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Phone:    r.Phone,
		Role:     r.Role,
	}
}

// LoginRequest содержит данные для входа пользователя.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest содержит refresh-токен, если он передан в теле, а не в cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse - публичное представление учетной записи.
type UserResponse struct {
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Role  entities.Role `json:"role"`
}

// AuthResponse - ответ register, login и refresh.
type AuthResponse struct {
	Status           int          `json:"status"`
	Message          string       `json:"message"`
	Token            string       `json:"token"`
	RefreshToken     string       `json:"refresh_token"`
	ExpiresAt        time.Time    `json:"expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             UserResponse `json:"user"`
}

// NewAuthResponse строит ответ из результата Auth Core.
func NewAuthResponse(status int, message string, result *services.AuthResult) AuthResponse {
	return AuthResponse{
		Status:           status,
		Message:          message,
		Token:            result.Tokens.AccessToken,
		RefreshToken:     result.Tokens.RefreshToken,
		ExpiresAt:        result.Tokens.AccessExpiresAt,
		RefreshExpiresAt: result.Tokens.RefreshExpiresAt,
		User: UserResponse{
			Name:  result.Account.Name,
			Email: result.Account.Email,
			Role:  result.Account.Role,
		},
	}
}

// StatusResponse - подтверждение без данных.
type StatusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
}

// ProfileResponse содержит данные профиля текущей учетной записи.
type ProfileResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      entities.Role `json:"role"`
	Phone     string        `json:"phone,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewProfileResponse строит профиль без хеша пароля и отпечатка сессии.
func NewProfileResponse(a *entities.Account) ProfileResponse {
	return ProfileResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
	}
}
