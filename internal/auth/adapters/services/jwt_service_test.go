package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/auth/adapters/services"
	"estatehub/internal/auth/domain/entities"
	domainservices "estatehub/internal/auth/domain/services"
)

const (
	testAccountID = "5b0b2a8e-8f1c-4a52-9d4e-1d6f3f0b7c11"
	testIssuer    = "estatehub-auth"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testJWTConfig() services.JWTConfig {
	return services.JWTConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Leeway:        5 * time.Second,
		Issuer:        testIssuer,
	}
}

func newTestJWT() (*services.ServiceJWT, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	return services.NewJWT(testJWTConfig(), services.WithClock(clock.Now)), clock
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	svc, clock := newTestJWT()
	ctx := context.Background()

	token, expiresAt, err := svc.IssueAccessToken(ctx, testAccountID, entities.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(15*time.Minute), expiresAt)

	claims, err := svc.Verify(ctx, token, domainservices.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testAccountID, claims.Subject)
	assert.Equal(t, entities.RoleAgent, claims.Role)
	assert.Equal(t, domainservices.AccessToken, claims.Kind)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.Equal(expiresAt))
}

func TestIssueAndVerifyRefreshToken(t *testing.T) {
	svc, clock := newTestJWT()
	ctx := context.Background()

	token, expiresAt, err := svc.IssueRefreshToken(ctx, testAccountID)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(7*24*time.Hour), expiresAt)

	claims, err := svc.Verify(ctx, token, domainservices.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, testAccountID, claims.Subject)
	assert.Empty(t, claims.Role)
}

func TestTokensAreUniqueWithinSameSecond(t *testing.T) {
	svc, _ := newTestJWT()
	ctx := context.Background()

	first, _, err := svc.IssueRefreshToken(ctx, testAccountID)
	require.NoError(t, err)
	second, _, err := svc.IssueRefreshToken(ctx, testAccountID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, svc.Fingerprint(first), svc.Fingerprint(second))
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	svc, _ := newTestJWT()
	ctx := context.Background()

	access, _, err := svc.IssueAccessToken(ctx, testAccountID, entities.RoleUser)
	require.NoError(t, err)
	refresh, _, err := svc.IssueRefreshToken(ctx, testAccountID)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, access, domainservices.RefreshToken)
	require.ErrorIs(t, err, domainservices.ErrInvalidToken)

	_, err = svc.Verify(ctx, refresh, domainservices.AccessToken)
	require.ErrorIs(t, err, domainservices.ErrInvalidToken)
}

func TestVerifyRejectsKindForgedWithSharedSecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	svc := services.NewJWT(cfg)
	ctx := context.Background()

	access, _, err := svc.IssueAccessToken(ctx, testAccountID, entities.RoleUser)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, access, domainservices.RefreshToken)
	require.ErrorIs(t, err, domainservices.ErrInvalidToken)
}

func TestVerifyExpiry(t *testing.T) {
	svc, clock := newTestJWT()
	ctx := context.Background()

	token, _, err := svc.IssueRefreshToken(ctx, testAccountID)
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour + 3*time.Second)
	_, err = svc.Verify(ctx, token, domainservices.RefreshToken)
	require.NoError(t, err, "leeway should tolerate small clock skew")

	clock.Advance(time.Minute)
	_, err = svc.Verify(ctx, token, domainservices.RefreshToken)
	require.ErrorIs(t, err, domainservices.ErrInvalidToken)
}

func TestVerifyRejectsMalformedAndForged(t *testing.T) {
	svc, clock := newTestJWT()
	ctx := context.Background()

	forgedClaims := services.Claims{
		Kind: string(domainservices.RefreshToken),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   testAccountID,
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forgedClaims).SignedString([]byte("attacker-secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, forgedClaims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuerClaims := forgedClaims
	wrongIssuerClaims.Issuer = "someone-else"
	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wrongIssuerClaims).SignedString([]byte("refresh-secret"))
	require.NoError(t, err)

	noExpiryClaims := forgedClaims
	noExpiryClaims.ExpiresAt = nil
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExpiryClaims).SignedString([]byte("refresh-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":         "",
		"garbage":       "not.a.jwt",
		"forged secret": forged,
		"alg none":      noneAlg,
		"wrong issuer":  wrongIssuer,
		"no expiry":     noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Verify(ctx, token, domainservices.RefreshToken)
			require.ErrorIs(t, err, domainservices.ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestIssueFailsWithoutSecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = nil
	svc := services.NewJWT(cfg)

	token, _, err := svc.IssueRefreshToken(context.Background(), testAccountID)
	require.ErrorIs(t, err, domainservices.ErrTokenGeneration)
	assert.Empty(t, token)
}

func TestIssueFailsWithoutSubject(t *testing.T) {
	svc, _ := newTestJWT()
	_, _, err := svc.IssueAccessToken(context.Background(), "", entities.RoleUser)
	require.ErrorIs(t, err, domainservices.ErrTokenGeneration)
}

func TestFingerprint(t *testing.T) {
	svc, _ := newTestJWT()

	fp := svc.Fingerprint("token")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, svc.Fingerprint("token"))
	assert.NotEqual(t, fp, svc.Fingerprint("token2"))
}

func TestServiceFactory(t *testing.T) {
	factory := services.NewServiceFactory(testJWTConfig(), 4)
	require.NotNil(t, factory.PasswordService())
	require.NotNil(t, factory.TokenService())

	token, _, err := factory.TokenService().IssueAccessToken(context.Background(), testAccountID, entities.RoleUser)
	require.NoError(t, err)
	_, err = factory.TokenService().Verify(context.Background(), token, domainservices.AccessToken)
	require.NoError(t, err)
}
