package api

import (
	"context"

	"estatehub/internal/auth/domain/services"
)

// AuthUseCase - входной порт операций аутентификации.
type AuthUseCase interface {
	Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error)

	Login(ctx context.Context, email, password string) (*services.AuthResult, error)

	RefreshTokens(ctx context.Context, refreshToken string) (*services.AuthResult, error)

	Logout(ctx context.Context, refreshToken string)
}
