package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
	"estatehub/pkg/logger"
)

const (
	methodIssueAccessToken  = "IssueAccessToken"
	methodIssueRefreshToken = "IssueRefreshToken"
	methodVerify            = "Verify"

	msgTokenIssued   = "token issued"
	msgTokenRejected = "token rejected"

	//nolint:gosec
	errSigningToken  = "error signing token"
	errEmptySecret   = "empty signing secret"
	errEmptySubject  = "empty subject"
	errKindMismatch  = "token kind mismatch"
	errUnknownRole   = "unknown role claim"
	errCtxIssueToken = "issuing token"
)

// ErrInvalidAlgorithm - токен подписан не HMAC.
var ErrInvalidAlgorithm = errors.New("invalid signing algorithm")

// JWTConfig - настройки подписи токенов. Секреты access и refresh должны различаться.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Leeway        time.Duration
	Issuer        string
}

// Claims - содержимое JWT.
type Claims struct {
	Role string `json:"role,omitempty"`
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// ServiceJWT реализует TokenService на HS256.
type ServiceJWT struct {
	cfg JWTConfig
	now func() time.Time
}

// JWTOption настраивает ServiceJWT.
type JWTOption func(*ServiceJWT)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) JWTOption {
	return func(s *ServiceJWT) {
		s.now = now
	}
}

// NewJWT создает сервис токенов.
func NewJWT(cfg JWTConfig, opts ...JWTOption) *ServiceJWT {
	s := &ServiceJWT{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueAccessToken выпускает короткоживущий access-токен с ролью.
func (s *ServiceJWT) IssueAccessToken(ctx context.Context, subjectID string, role entities.Role) (string, time.Time, error) {
	log := logger.Log(ctx).With(zap.String("method", methodIssueAccessToken), zap.String("accountID", subjectID))
	return s.issue(ctx, log, subjectID, role.String(), services.AccessToken)
}

// IssueRefreshToken выпускает долгоживущий refresh-токен.
func (s *ServiceJWT) IssueRefreshToken(ctx context.Context, subjectID string) (string, time.Time, error) {
	log := logger.Log(ctx).With(zap.String("method", methodIssueRefreshToken), zap.String("accountID", subjectID))
	return s.issue(ctx, log, subjectID, "", services.RefreshToken)
}

func (s *ServiceJWT) issue(ctx context.Context, log *logger.Logger, subjectID, role string, kind services.TokenKind) (string, time.Time, error) {
	secret, ttl := s.paramsFor(kind)
	if len(secret) == 0 {
		log.Error(ctx, errEmptySecret)
		return "", time.Time{}, fmt.Errorf("%s: %w: %s", errCtxIssueToken, services.ErrTokenGeneration, errEmptySecret)
	}
	if subjectID == "" {
		return "", time.Time{}, fmt.Errorf("%s: %w: %s", errCtxIssueToken, services.ErrTokenGeneration, errEmptySubject)
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Role: role,
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		log.Error(ctx, errSigningToken, zap.Error(err))
		return "", time.Time{}, fmt.Errorf("%s: %w: %w", errCtxIssueToken, services.ErrTokenGeneration, err)
	}

	log.Debug(ctx, msgTokenIssued, zap.String("kind", string(kind)), zap.Time("expiresAt", expiresAt))
	return signed, expiresAt, nil
}

// Verify проверяет подпись, срок действия, издателя и вид токена.
func (s *ServiceJWT) Verify(ctx context.Context, token string, kind services.TokenKind) (*services.TokenClaims, error) {
	log := logger.Log(ctx).With(zap.String("method", methodVerify), zap.String("kind", string(kind)))

	claims, err := s.parse(token, kind)
	if err != nil {
		log.Debug(ctx, msgTokenRejected, zap.Error(err))
		return nil, services.ErrInvalidToken
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return &services.TokenClaims{
		Subject:   claims.Subject,
		Role:      entities.Role(claims.Role),
		Kind:      kind,
		ID:        claims.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *ServiceJWT) parse(token string, kind services.TokenKind) (*Claims, error) {
	secret, _ := s.paramsFor(kind)
	if len(secret) == 0 {
		return nil, errors.New(errEmptySecret)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.cfg.Leeway),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAlgorithm, t.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	switch {
	case claims.Kind != string(kind):
		return nil, errors.New(errKindMismatch)
	case claims.Subject == "":
		return nil, errors.New(errEmptySubject)
	case kind == services.AccessToken && !entities.Role(claims.Role).Valid():
		return nil, errors.New(errUnknownRole)
	}
	return &claims, nil
}

func (s *ServiceJWT) paramsFor(kind services.TokenKind) ([]byte, time.Duration) {
	if kind == services.RefreshToken {
		return s.cfg.RefreshSecret, s.cfg.RefreshTTL
	}
	return s.cfg.AccessSecret, s.cfg.AccessTTL
}

// Fingerprint возвращает hex SHA-256 от refresh-токена.
func (s *ServiceJWT) Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
