package app_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
)

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) Create(ctx context.Context, account *entities.Account) (*entities.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *mockAccountRepository) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *mockAccountRepository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *mockAccountRepository) SetRefreshFingerprint(ctx context.Context, id, fingerprint string) error {
	return m.Called(ctx, id, fingerprint).Error(0)
}

func (m *mockAccountRepository) SwapRefreshFingerprint(ctx context.Context, id, expected, next string) (bool, error) {
	args := m.Called(ctx, id, expected, next)
	return args.Bool(0), args.Error(1)
}

type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) Hash(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) Verify(ctx context.Context, password, hash string) (bool, error) {
	args := m.Called(ctx, password, hash)
	return args.Bool(0), args.Error(1)
}

// mockTokenService мокает выпуск и проверку, отпечаток считается детерминированно.
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) IssueAccessToken(ctx context.Context, subjectID string, role entities.Role) (string, time.Time, error) {
	args := m.Called(ctx, subjectID, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) IssueRefreshToken(ctx context.Context, subjectID string) (string, time.Time, error) {
	args := m.Called(ctx, subjectID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) Verify(ctx context.Context, token string, kind services.TokenKind) (*services.TokenClaims, error) {
	args := m.Called(ctx, token, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

func (m *mockTokenService) Fingerprint(token string) string {
	return "fp:" + token
}

type mocks struct {
	accounts  *mockAccountRepository
	passwords *mockPasswordService
	tokens    *mockTokenService
}

func newMocks() *mocks {
	return &mocks{
		accounts:  new(mockAccountRepository),
		passwords: new(mockPasswordService),
		tokens:    new(mockTokenService),
	}
}

func (m *mocks) assertExpectations(t mock.TestingT) {
	m.accounts.AssertExpectations(t)
	m.passwords.AssertExpectations(t)
	m.tokens.AssertExpectations(t)
}
