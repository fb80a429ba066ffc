// Package app содержит сценарии сервиса аутентификации.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/ports/repositories"
	"estatehub/pkg/logger"
)

const (
	methodGetProfile = "GetProfile"

	msgRequestingProfile      = "requesting account profile"
	msgEmptyAccountIDProvided = "empty account ID provided"
	msgProfileRetrieved       = "account profile retrieved"

	msgErrFindingAccountByID = "failed to find account by ID"

	errCtxValidatingAccountID = "validating account ID"
	errCtxFetchingProfile     = "fetching account profile"
)

// AccountUseCaseImpl отдает профиль текущей учетной записи.
type AccountUseCaseImpl struct {
	accounts repositories.AccountRepository
}

// NewAccountUseCase создает сервис профиля.
func NewAccountUseCase(accounts repositories.AccountRepository) *AccountUseCaseImpl {
	return &AccountUseCaseImpl{accounts: accounts}
}

// GetProfile возвращает учетную запись по ID.
func (u *AccountUseCaseImpl) GetProfile(ctx context.Context, accountID string) (*entities.Account, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGetProfile), zap.String("accountID", accountID))
	log.Debug(ctx, msgRequestingProfile)

	if accountID == "" {
		log.Debug(ctx, msgEmptyAccountIDProvided)
		return nil, fmt.Errorf("%s: %w", errCtxValidatingAccountID, entities.ErrEmptyAccountID)
	}

	account, err := u.accounts.FindByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, entities.ErrAccountNotFound) {
			log.Error(ctx, msgErrFindingAccountByID, zap.Error(err))
		}
		return nil, fmt.Errorf("%s: %w", errCtxFetchingProfile, err)
	}

	log.Debug(ctx, msgProfileRetrieved)
	return account, nil
}
