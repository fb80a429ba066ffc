package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
	"estatehub/internal/auth/ports/repositories"
	svc "estatehub/internal/auth/ports/services"
	"estatehub/pkg/logger"
)

const (
	methodRegister      = "Register"
	methodLogin         = "Login"
	methodRefreshTokens = "RefreshTokens"
	methodLogout        = "Logout"
	methodIssueTokens   = "issueTokens"

	msgStartRegistration  = "starting account registration"
	msgInvalidInput       = "invalid input"
	msgEmailExists        = "account with this email already exists"
	msgAccountRegistered  = "account registered successfully"
	msgLoginAttempt       = "login attempt"
	msgLoginNonExistent   = "login attempt with non-existent email"
	msgInvalidPassword    = "invalid password provided"
	msgLoggedIn           = "account logged in successfully"
	msgRefreshingTokens   = "refreshing tokens"
	msgRefreshRejected    = "refresh token rejected"
	msgReuseDetected      = "stale refresh token presented"
	msgRotationLost       = "refresh fingerprint rotated concurrently"
	msgTokensRefreshed    = "tokens refreshed successfully"
	msgProcessingLogout   = "processing logout request"
	msgLogoutInvalidToken = "logout with invalid token ignored"
	msgLogoutNoSession    = "logout for inactive session ignored"
	msgLoggedOut          = "account logged out successfully"
	msgTokenPairIssued    = "token pair issued"
	msgErrDummyHash       = "failed to prepare dummy password hash"

	msgErrCheckExistingAccount = "failed to check existing account"
	msgErrHashPassword         = "failed to hash password"
	msgErrCreateAccount        = "failed to create account"
	msgErrIssueTokens          = "failed to issue tokens"
	msgErrFindingAccount       = "error finding account"
	msgErrVerifyingPassword    = "error verifying password"
	msgErrStoreFingerprint     = "failed to store refresh fingerprint"
	msgErrClearFingerprint     = "failed to clear refresh fingerprint"

	errCtxValidatingInput     = "validating input"
	errCtxEmailRegistered     = "email already registered"
	errCtxCheckingAccount     = "checking existing account"
	errCtxHashingPassword     = "hashing password"
	errCtxCreatingAccount     = "creating account"
	errCtxIssuingTokens       = "issuing tokens"
	errCtxAuthenticating      = "authenticating"
	errCtxFindingAccount      = "finding account"
	errCtxVerifyingPassword   = "verifying password"
	errCtxStoringFingerprint  = "storing refresh fingerprint"
	errCtxRefreshingTokens    = "refreshing tokens"
	errCtxIssuingAccessToken  = "issuing access token"
	errCtxIssuingRefreshToken = "issuing refresh token"

	// dummyPassword хэшируется один раз, чтобы вход с неизвестным email
	// тратил на проверку пароля столько же времени, сколько с известным.
	dummyPassword = "estatehub-unknown-account"
)

// AuthUseCaseImpl реализует выдачу, ротацию и отзыв токенов.
type AuthUseCaseImpl struct {
	accounts    repositories.AccountRepository
	passwordSvc svc.PasswordService
	tokenSvc    svc.TokenService
	newID       func() string

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthUseCase создает сервис аутентификации.
func NewAuthUseCase(
	accounts repositories.AccountRepository,
	passwordSvc svc.PasswordService,
	tokenSvc svc.TokenService,
) *AuthUseCaseImpl {
	return &AuthUseCaseImpl{
		accounts:    accounts,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		newID:       uuid.NewString,
	}
}

// Register создает учетную запись и сразу открывает для нее сессию.
func (a *AuthUseCaseImpl) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	log := logger.Log(ctx).With(zap.String("method", methodRegister))
	log.Debug(ctx, msgStartRegistration)

	reg, err := validateRegistration(input)
	if err != nil {
		log.Debug(ctx, msgInvalidInput, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxValidatingInput, err)
	}
	log = log.With(zap.String("email", reg.email))

	existing, err := a.accounts.FindByEmail(ctx, reg.email)
	if err != nil && !errors.Is(err, entities.ErrAccountNotFound) {
		log.Error(ctx, msgErrCheckExistingAccount, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxCheckingAccount, services.ErrInternal)
	}
	if existing != nil {
		log.Debug(ctx, msgEmailExists)
		return nil, fmt.Errorf("%s: %w", errCtxEmailRegistered, services.ErrConflict)
	}

	hash, err := a.passwordSvc.Hash(ctx, reg.password)
	if err != nil {
		log.Error(ctx, msgErrHashPassword, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxHashingPassword, services.ErrInternal)
	}

	accountID := a.newID()
	pair, fingerprint, err := a.issueTokens(ctx, accountID, reg.role)
	if err != nil {
		log.Error(ctx, msgErrIssueTokens, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxIssuingTokens, services.ErrInternal)
	}

	created, err := a.accounts.Create(ctx, &entities.Account{
		ID:                 accountID,
		Email:              reg.email,
		PasswordHash:       hash,
		Role:               reg.role,
		Name:               reg.name,
		Phone:              reg.phone,
		RefreshFingerprint: fingerprint,
	})
	if err != nil {
		if errors.Is(err, entities.ErrEmailTaken) {
			log.Debug(ctx, msgEmailExists)
			return nil, fmt.Errorf("%s: %w", errCtxEmailRegistered, services.ErrConflict)
		}
		log.Error(ctx, msgErrCreateAccount, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxCreatingAccount, services.ErrInternal)
	}

	log.Info(ctx, msgAccountRegistered, zap.String("accountID", created.ID), zap.String("role", created.Role.String()))
	return &services.AuthResult{Tokens: *pair, Account: services.NewPublicAccount(created)}, nil
}

// Login проверяет пароль и открывает новую сессию, закрывая предыдущую.
// Отсутствующий email и неверный пароль дают одну и ту же ошибку.
func (a *AuthUseCaseImpl) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	email = entities.NormalizeEmail(email)
	log := logger.Log(ctx).With(zap.String("method", methodLogin), zap.String("email", email))
	log.Debug(ctx, msgLoginAttempt)

	if err := validateCredentials(email, password); err != nil {
		log.Debug(ctx, msgInvalidInput, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxValidatingInput, err)
	}

	account, err := a.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrAccountNotFound) {
			log.Debug(ctx, msgLoginNonExistent)
			a.verifyDummy(ctx, password)
			return nil, fmt.Errorf("%s: %w", errCtxAuthenticating, services.ErrInvalidCredentials)
		}
		log.Error(ctx, msgErrFindingAccount, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFindingAccount, services.ErrInternal)
	}
	log = log.With(zap.String("accountID", account.ID))

	valid, err := a.passwordSvc.Verify(ctx, password, account.PasswordHash)
	if err != nil {
		log.Error(ctx, msgErrVerifyingPassword, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxVerifyingPassword, services.ErrInternal)
	}
	if !valid {
		log.Debug(ctx, msgInvalidPassword)
		return nil, fmt.Errorf("%s: %w", errCtxAuthenticating, services.ErrInvalidCredentials)
	}

	pair, fingerprint, err := a.issueTokens(ctx, account.ID, account.Role)
	if err != nil {
		log.Error(ctx, msgErrIssueTokens, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxIssuingTokens, services.ErrInternal)
	}

	if err := a.accounts.SetRefreshFingerprint(ctx, account.ID, fingerprint); err != nil {
		if errors.Is(err, entities.ErrAccountNotFound) {
			log.Debug(ctx, msgLoginNonExistent)
			return nil, fmt.Errorf("%s: %w", errCtxAuthenticating, services.ErrInvalidCredentials)
		}
		log.Error(ctx, msgErrStoreFingerprint, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxStoringFingerprint, services.ErrInternal)
	}

	log.Info(ctx, msgLoggedIn)
	return &services.AuthResult{Tokens: *pair, Account: services.NewPublicAccount(account)}, nil
}

// verifyDummy сравнивает пароль с заранее подготовленным хэшем. Результат не используется.
func (a *AuthUseCaseImpl) verifyDummy(ctx context.Context, password string) {
	a.dummyOnce.Do(func() {
		hash, err := a.passwordSvc.Hash(ctx, dummyPassword)
		if err != nil {
			logger.Log(ctx).Warn(ctx, msgErrDummyHash, zap.Error(err))
			return
		}
		a.dummyHash = hash
	})
	if a.dummyHash == "" {
		return
	}
	_, _ = a.passwordSvc.Verify(ctx, password, a.dummyHash)
}

// RefreshTokens меняет действующий refresh-токен на новую пару (ротация при использовании).
// Любая неудача дает services.ErrInvalidToken, причина только логируется.
func (a *AuthUseCaseImpl) RefreshTokens(ctx context.Context, refreshToken string) (*services.AuthResult, error) {
	log := logger.Log(ctx).With(zap.String("method", methodRefreshTokens))
	log.Debug(ctx, msgRefreshingTokens)

	reject := func() (*services.AuthResult, error) {
		return nil, fmt.Errorf("%s: %w", errCtxRefreshingTokens, services.ErrInvalidToken)
	}

	if refreshToken == "" {
		log.Debug(ctx, msgRefreshRejected, zap.String("reason", "empty token"))
		return reject()
	}

	claims, err := a.tokenSvc.Verify(ctx, refreshToken, services.RefreshToken)
	if err != nil {
		log.Debug(ctx, msgRefreshRejected, zap.Error(err))
		return reject()
	}
	log = log.With(zap.String("accountID", claims.Subject))

	account, err := a.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, entities.ErrAccountNotFound) {
			log.Debug(ctx, msgRefreshRejected, zap.Error(err))
		} else {
			log.Error(ctx, msgErrFindingAccount, zap.Error(err))
		}
		return reject()
	}

	presented := a.tokenSvc.Fingerprint(refreshToken)
	if !fingerprintMatches(presented, account.RefreshFingerprint) {
		log.Warn(ctx, msgReuseDetected, zap.Bool("hasSession", account.HasSession()))
		return reject()
	}

	pair, next, err := a.issueTokens(ctx, account.ID, account.Role)
	if err != nil {
		log.Error(ctx, msgErrIssueTokens, zap.Error(err))
		return reject()
	}

	swapped, err := a.accounts.SwapRefreshFingerprint(ctx, account.ID, presented, next)
	if err != nil {
		log.Error(ctx, msgErrStoreFingerprint, zap.Error(err))
		return reject()
	}
	if !swapped {
		log.Warn(ctx, msgRotationLost)
		return reject()
	}

	log.Info(ctx, msgTokensRefreshed)
	return &services.AuthResult{Tokens: *pair, Account: services.NewPublicAccount(account)}, nil
}

// Logout закрывает сессию, которой принадлежит токен. Ошибки не возвращаются:
// недействительный токен или уже закрытая сессия означают, что цель достигнута.
func (a *AuthUseCaseImpl) Logout(ctx context.Context, refreshToken string) {
	log := logger.Log(ctx).With(zap.String("method", methodLogout))
	log.Debug(ctx, msgProcessingLogout)

	if refreshToken == "" {
		log.Debug(ctx, msgLogoutInvalidToken)
		return
	}

	claims, err := a.tokenSvc.Verify(ctx, refreshToken, services.RefreshToken)
	if err != nil {
		log.Debug(ctx, msgLogoutInvalidToken, zap.Error(err))
		return
	}
	log = log.With(zap.String("accountID", claims.Subject))

	cleared, err := a.accounts.SwapRefreshFingerprint(ctx, claims.Subject, a.tokenSvc.Fingerprint(refreshToken), "")
	if err != nil {
		log.Warn(ctx, msgErrClearFingerprint, zap.Error(err))
		return
	}
	if !cleared {
		log.Debug(ctx, msgLogoutNoSession)
		return
	}

	log.Info(ctx, msgLoggedOut)
}

func (a *AuthUseCaseImpl) issueTokens(ctx context.Context, accountID string, role entities.Role) (*services.TokenPair, string, error) {
	log := logger.Log(ctx).With(zap.String("method", methodIssueTokens), zap.String("accountID", accountID))

	accessToken, accessExpires, err := a.tokenSvc.IssueAccessToken(ctx, accountID, role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", errCtxIssuingAccessToken, err)
	}

	refreshToken, refreshExpires, err := a.tokenSvc.IssueRefreshToken(ctx, accountID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", errCtxIssuingRefreshToken, err)
	}

	log.Debug(ctx, msgTokenPairIssued)
	return &services.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpires,
		RefreshExpiresAt: refreshExpires,
	}, a.tokenSvc.Fingerprint(refreshToken), nil
}

func fingerprintMatches(presented, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
