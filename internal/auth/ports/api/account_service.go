package api

import (
	"context"

	"estatehub/internal/auth/domain/entities"
)

// AccountUseCase - входной порт операций над профилем
type AccountUseCase interface {
	GetProfile(ctx context.Context, accountID string) (*entities.Account, error)
}
