// Package http содержит HTTP сервер сервиса аутентификации на fiber.
package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"estatehub/internal/auth/adapters/http/auth"
	"estatehub/internal/auth/adapters/http/dto"
	"estatehub/internal/auth/adapters/http/middleware"
	"estatehub/internal/auth/ports/api"
	portservices "estatehub/internal/auth/ports/services"
	"estatehub/pkg/logger"
)

const (
	logUnhandledError = "unhandled handler error"
	logHealthFailed   = "health check failed"

	errRouteNotFound = "route not found"
	errInternal      = "internal server error"
	errUnavailable   = "service unavailable"
)

// Области ограничения частоты запросов.
const (
	ScopeLogin    = "login"
	ScopeRegister = "register"
)

// ServerConfig задает таймауты fiber.
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dependencies - зависимости маршрутов.
type Dependencies struct {
	Auth     api.AuthUseCase
	Accounts api.AccountUseCase
	Tokens   portservices.TokenService
	// Limiter может быть nil, тогда ограничение частоты отключено.
	Limiter portservices.RateLimiter
	Cookie  auth.CookieConfig
	// Health проверяет зависимости сервиса. nil означает, что проверять нечего.
	Health func(ctx context.Context) error
}

// NewApp создает fiber.App с обработчиком ошибок в формате JSON.
func NewApp(cfg ServerConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "estatehub-auth",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: errorHandler,
	})
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, deps Dependencies) {
	authHandler := auth.NewHandler(deps.Auth, deps.Accounts, deps.Cookie)

	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	app.Get("/health", healthHandler(deps.Health))

	apiV1 := app.Group("/api/v1")

	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/register", authHandler.Register, rateLimit(deps.Limiter, ScopeRegister)...)
	authRoutes.Post("/login", authHandler.Login, rateLimit(deps.Limiter, ScopeLogin)...)
	authRoutes.Post("/refresh", authHandler.RefreshTokens)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", authHandler.GetProfile, middleware.NewAuthMiddleware(deps.Tokens))

	app.Use(func(ctx fiber.Ctx) error {
		return ctx.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Status: fiber.StatusNotFound,
			Error:  errRouteNotFound,
		})
	})
}

func rateLimit(limiter portservices.RateLimiter, scope string) []fiber.Handler {
	if limiter == nil {
		return nil
	}
	return []fiber.Handler{middleware.NewRateLimitMiddleware(limiter, scope)}
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		if check != nil {
			if err := check(requestCtx); err != nil {
				logger.Log(requestCtx).Warn(requestCtx, logHealthFailed, zap.Error(err))
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(dto.StatusResponse{
					Status:  fiber.StatusServiceUnavailable,
					Message: errUnavailable,
				})
			}
		}
		return ctx.Status(fiber.StatusOK).JSON(dto.StatusResponse{
			Status:  fiber.StatusOK,
			Message: "ok",
		})
	}
}

func errorHandler(ctx fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := errInternal

	var fErr *fiber.Error
	if errors.As(err, &fErr) {
		status = fErr.Code
		message = fErr.Message
	} else {
		requestCtx := ctx.Context()
		logger.Log(requestCtx).Error(requestCtx, logUnhandledError, zap.Error(err))
	}

	return ctx.Status(status).JSON(dto.ErrorResponse{
		Status: status,
		Error:  message,
	})
}
