package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estatehub/internal/auth/app"
	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
)

func TestRefreshTokens(t *testing.T) {
	const presented = "refresh-0"

	claims := &services.TokenClaims{Subject: "account-1", Kind: services.RefreshToken}
	activeAccount := func() *entities.Account {
		return &entities.Account{
			ID:                 "account-1",
			Email:              "ali@x.com",
			Name:               "Ali",
			Role:               entities.RoleUser,
			RefreshFingerprint: "fp:" + presented,
		}
	}
	expectIssue := func(m *mocks) {
		m.tokens.On("IssueAccessToken", mock.Anything, "account-1", entities.RoleUser).Return("access-1", testAccessExpiry, nil).Once()
		m.tokens.On("IssueRefreshToken", mock.Anything, "account-1").Return("refresh-1", testRefreshExp, nil).Once()
	}

	tests := []struct {
		name       string
		token      string
		setupMocks func(m *mocks)
		wantOK     bool
	}{
		{
			name:  "success - fingerprint rotated with compare-and-set",
			token: presented,
			setupMocks: func(m *mocks) {
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(activeAccount(), nil).Once()
				expectIssue(m)
				m.accounts.On("SwapRefreshFingerprint", mock.Anything, "account-1", "fp:"+presented, "fp:refresh-1").Return(true, nil).Once()
			},
			wantOK: true,
		},
		{
			name:       "empty token",
			token:      "",
			setupMocks: func(*mocks) {},
		},
		{
			name:  "signature or expiry failure",
			token: presented,
			setupMocks: func(m *mocks) {
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(nil, services.ErrInvalidToken).Once()
			},
		},
		{
			name:  "account no longer exists",
			token: presented,
			setupMocks: func(m *mocks) {
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(nil, entities.ErrAccountNotFound).Once()
			},
		},
		{
			name:  "store failure while loading account",
			token: presented,
			setupMocks: func(m *mocks) {
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(nil, errDatabase).Once()
			},
		},
		{
			name:  "stale token after rotation",
			token: presented,
			setupMocks: func(m *mocks) {
				account := activeAccount()
				account.RefreshFingerprint = "fp:newer-token"
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(account, nil).Once()
			},
		},
		{
			name:  "no active session",
			token: presented,
			setupMocks: func(m *mocks) {
				account := activeAccount()
				account.RefreshFingerprint = ""
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(account, nil).Once()
			},
		},
		{
			name:  "token signing fails",
			token: presented,
			setupMocks: func(m *mocks) {
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(activeAccount(), nil).Once()
				m.tokens.On("IssueAccessToken", mock.Anything, "account-1", entities.RoleUser).Return("", time.Time{}, errTokenSigning).Once()
			},
		},
		{
			name:  "lost compare-and-set race",
			token: presented,
			setupMocks: func(m *mocks) {
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(activeAccount(), nil).Once()
				expectIssue(m)
				m.accounts.On("SwapRefreshFingerprint", mock.Anything, "account-1", "fp:"+presented, "fp:refresh-1").Return(false, nil).Once()
			},
		},
		{
			name:  "store failure during rotation",
			token: presented,
			setupMocks: func(m *mocks) {
				m.tokens.On("Verify", mock.Anything, presented, services.RefreshToken).Return(claims, nil).Once()
				m.accounts.On("FindByID", mock.Anything, "account-1").Return(activeAccount(), nil).Once()
				expectIssue(m)
				m.accounts.On("SwapRefreshFingerprint", mock.Anything, "account-1", "fp:"+presented, "fp:refresh-1").Return(false, errDatabase).Once()
			},
		},
	}

	var rejection string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			tt.setupMocks(m)

			result, err := app.NewAuthUseCase(m.accounts, m.passwords, m.tokens).RefreshTokens(context.Background(), tt.token)

			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, "access-1", result.Tokens.AccessToken)
				assert.Equal(t, "refresh-1", result.Tokens.RefreshToken)
				assert.Equal(t, "ali@x.com", result.Account.Email)
			} else {
				require.ErrorIs(t, err, services.ErrInvalidToken)
				require.ErrorIs(t, err, services.ErrUnauthorized)
				assert.NotErrorIs(t, err, entities.ErrAccountNotFound)
				assert.NotErrorIs(t, err, errDatabase)
				assert.Nil(t, result)

				if rejection == "" {
					rejection = err.Error()
				}
				assert.Equal(t, rejection, err.Error(), "every rejection must look the same")
			}

			m.assertExpectations(t)
		})
	}
}
