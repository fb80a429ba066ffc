package repositories

import (
	"context"

	"estatehub/internal/auth/domain/entities"
)

// AccountRepository - хранилище учетных записей.
type AccountRepository interface {
	// Create сохраняет новую учетную запись. Дубликат email дает entities.ErrEmailTaken.
	Create(ctx context.Context, account *entities.Account) (*entities.Account, error)

	FindByID(ctx context.Context, id string) (*entities.Account, error)

	FindByEmail(ctx context.Context, email string) (*entities.Account, error)

	// SetRefreshFingerprint безусловно перезаписывает отпечаток refresh-токена.
	SetRefreshFingerprint(ctx context.Context, id, fingerprint string) error

	// SwapRefreshFingerprint заменяет отпечаток на next, только если текущее значение равно expected.
	// Возвращает false, если значение уже изменилось.
	SwapRefreshFingerprint(ctx context.Context, id, expected, next string) (bool, error)
}
