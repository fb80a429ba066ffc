package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"estatehub/internal/auth/adapters/http/dto"
	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
	portservices "estatehub/internal/auth/ports/services"
	"estatehub/pkg/logger"
)

const (
	logAuthMiddleware = "auth middleware"

	errNoAuthHeader       = "no authorization header provided"
	errInvalidTokenFormat = "invalid token format"
)

const bearerPrefix = "Bearer "

type localsKey int

const (
	accountIDKey localsKey = iota
	roleKey
)

// NewAuthMiddleware проверяет access-токен из заголовка Authorization.
// Проверка не обращается к хранилищу: access-токен не имеет состояния.
func NewAuthMiddleware(tokens portservices.TokenService) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))
		log.Debug(requestCtx, logAuthMiddleware)

		header := ctx.Get(fiber.HeaderAuthorization)
		if header == "" {
			log.Debug(requestCtx, errNoAuthHeader)
			return unauthorized(ctx, errNoAuthHeader)
		}

		if !strings.HasPrefix(header, bearerPrefix) {
			log.Debug(requestCtx, errInvalidTokenFormat)
			return unauthorized(ctx, errInvalidTokenFormat)
		}

		claims, err := tokens.Verify(requestCtx, strings.TrimSpace(header[len(bearerPrefix):]), services.AccessToken)
		if err != nil {
			log.Debug(requestCtx, services.ErrInvalidToken.Error(), zap.Error(err))
			return unauthorized(ctx, services.ErrInvalidToken.Error())
		}

		ctx.Locals(accountIDKey, claims.Subject)
		ctx.Locals(roleKey, claims.Role)

		return ctx.Next()
	}
}

// AccountID возвращает идентификатор учетной записи, проверенный NewAuthMiddleware.
func AccountID(ctx fiber.Ctx) (string, bool) {
	id, ok := ctx.Locals(accountIDKey).(string)
	return id, ok && id != ""
}

// Role возвращает роль из проверенного access-токена.
func Role(ctx fiber.Ctx) (entities.Role, bool) {
	role, ok := ctx.Locals(roleKey).(entities.Role)
	return role, ok
}

func unauthorized(ctx fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Status: fiber.StatusUnauthorized,
		Error:  message,
	})
}
