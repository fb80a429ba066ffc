package services

import (
	"context"
	"time"

	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
)

// TokenService выпускает и проверяет подписанные токены.
type TokenService interface {
	IssueAccessToken(ctx context.Context, subjectID string, role entities.Role) (string, time.Time, error)

	IssueRefreshToken(ctx context.Context, subjectID string) (string, time.Time, error)

	// Verify проверяет подпись, срок действия и вид токена.
	// Любая ошибка сводится к services.ErrInvalidToken.
	Verify(ctx context.Context, token string, kind services.TokenKind) (*services.TokenClaims, error)

	// Fingerprint возвращает значение, которое хранится вместо refresh-токена.
	Fingerprint(token string) string
}
