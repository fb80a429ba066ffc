// Package auth содержит HTTP обработчики сервиса аутентификации.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"estatehub/internal/auth/adapters/http/dto"
	"estatehub/internal/auth/adapters/http/middleware"
	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
	"estatehub/internal/auth/ports/api"
	"estatehub/pkg/logger"
)

// Константы для логирования.
const (
	logHandlerRegister      = "auth handler: register"
	logHandlerLogin         = "auth handler: login"
	logHandlerRefreshTokens = "auth handler: refresh tokens" // #nosec G101 - not a credential
	logHandlerLogout        = "auth handler: logout"
	logHandlerGetProfile    = "auth handler: get profile"

	errInvalidRequest = "invalid request"
	errFailedRequest  = "failed to serve request"
)

// Сообщения успешных ответов.
const (
	msgRegistered = "account registered successfully"
	msgLoggedIn   = "login successful"
	msgRefreshed  = "tokens refreshed successfully"
	msgLoggedOut  = "logged out successfully"
)

// Handler содержит HTTP обработчики для авторизации.
type Handler struct {
	auth     api.AuthUseCase
	accounts api.AccountUseCase
	cookie   CookieConfig
	now      func() time.Time
}

// NewHandler создает новый экземпляр обработчика авторизации.
func NewHandler(auth api.AuthUseCase, accounts api.AccountUseCase, cookie CookieConfig) *Handler {
	return &Handler{
		auth:     auth,
		accounts: accounts,
		cookie:   cookie,
		now:      time.Now,
	}
}

// Register обрабатывает запрос на регистрацию нового пользователя.
func (h *Handler) Register(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "register"))
	log.Debug(requestCtx, logHandlerRegister)

	var req dto.RegisterRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, errInvalidRequest, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, errInvalidRequest, "")
	}

	result, err := h.auth.Register(requestCtx, req.Input())
	if err != nil {
		log.Info(requestCtx, errFailedRequest, zap.Error(err))
		return sendDomainError(ctx, err)
	}

	return h.sendSession(ctx, fiber.StatusCreated, msgRegistered, result)
}

// Login обрабатывает запрос на вход пользователя.
func (h *Handler) Login(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "login"))
	log.Debug(requestCtx, logHandlerLogin)

	var req dto.LoginRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, errInvalidRequest, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, errInvalidRequest, "")
	}

	result, err := h.auth.Login(requestCtx, req.Email, req.Password)
	if err != nil {
		log.Info(requestCtx, errFailedRequest, zap.Error(err))
		return sendDomainError(ctx, err)
	}

	return h.sendSession(ctx, fiber.StatusOK, msgLoggedIn, result)
}

// RefreshTokens обрабатывает запрос на ротацию токенов.
// Сначала проверяется cookie, затем тело запроса: если токен из cookie
// отклонен, используется токен из тела.
func (h *Handler) RefreshTokens(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "refresh"))
	log.Debug(requestCtx, logHandlerRefreshTokens)

	candidates := refreshTokensFrom(ctx)
	if len(candidates) == 0 {
		return sendDomainError(ctx, services.ErrInvalidToken)
	}

	var err error
	for _, token := range candidates {
		var result *services.AuthResult
		result, err = h.auth.RefreshTokens(requestCtx, token)
		if err == nil {
			return h.sendSession(ctx, fiber.StatusOK, msgRefreshed, result)
		}
		log.Info(requestCtx, errFailedRequest, zap.Error(err))
		if !errors.Is(err, services.ErrUnauthorized) {
			break
		}
	}

	h.cookie.clear(ctx)
	return sendDomainError(ctx, err)
}

// Logout завершает сессию. Ответ всегда успешный.
func (h *Handler) Logout(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	logger.Log(requestCtx).Debug(requestCtx, logHandlerLogout)

	for _, token := range refreshTokensFrom(ctx) {
		h.auth.Logout(requestCtx, token)
	}
	h.cookie.clear(ctx)

	return sendJSON(ctx, fiber.StatusOK, dto.StatusResponse{
		Status:  fiber.StatusOK,
		Message: msgLoggedOut,
	})
}

// GetProfile возвращает профиль владельца access-токена.
func (h *Handler) GetProfile(ctx fiber.Ctx) error {
	requestCtx := ctx.Context()
	log := logger.Log(requestCtx).With(zap.String("handler", "me"))
	log.Debug(requestCtx, logHandlerGetProfile)

	accountID, ok := middleware.AccountID(ctx)
	if !ok {
		return sendDomainError(ctx, services.ErrInvalidToken)
	}

	account, err := h.accounts.GetProfile(requestCtx, accountID)
	if err != nil {
		log.Info(requestCtx, errFailedRequest, zap.String("accountID", accountID), zap.Error(err))
		if errors.Is(err, entities.ErrAccountNotFound) {
			return sendDomainError(ctx, services.ErrInvalidToken)
		}
		return sendDomainError(ctx, err)
	}

	return sendJSON(ctx, fiber.StatusOK, dto.NewProfileResponse(account))
}

func (h *Handler) sendSession(ctx fiber.Ctx, status int, message string, result *services.AuthResult) error {
	h.cookie.set(ctx, result.Tokens.RefreshToken, result.Tokens.RefreshExpiresAt, h.now())
	return sendJSON(ctx, status, dto.NewAuthResponse(status, message, result))
}

// refreshTokensFrom возвращает различные refresh-токены запроса: cookie, затем тело.
func refreshTokensFrom(ctx fiber.Ctx) []string {
	var tokens []string
	cookie := ctx.Cookies(RefreshCookieName)
	if cookie != "" {
		tokens = append(tokens, cookie)
	}
	if len(ctx.Body()) == 0 {
		return tokens
	}
	var req dto.RefreshRequest
	if err := ctx.Bind().JSON(&req); err != nil {
		return tokens
	}
	if req.RefreshToken != "" && req.RefreshToken != cookie {
		tokens = append(tokens, req.RefreshToken)
	}
	return tokens
}

// StatusFor сопоставляет ошибку Auth Core с кодом HTTP ответа.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func sendDomainError(ctx fiber.Ctx, err error) error {
	var field string
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		field = vErr.Field
	}
	return sendError(ctx, StatusFor(err), services.PublicMessage(err), field)
}

func sendError(ctx fiber.Ctx, status int, message, field string) error {
	return sendJSON(ctx, status, dto.ErrorResponse{
		Status: status,
		Error:  message,
		Field:  field,
	})
}

func sendJSON(ctx fiber.Ctx, status int, body any) error {
	if err := ctx.Status(status).JSON(body); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}
