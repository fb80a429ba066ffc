package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"estatehub/internal/auth/adapters/http/dto"
	portservices "estatehub/internal/auth/ports/services"
	"estatehub/pkg/logger"
)

const (
	logRateLimited      = "rate limit exceeded"
	logRateLimiterError = "rate limiter unavailable, request allowed"

	errTooManyRequests = "too many requests"
)

// NewRateLimitMiddleware ограничивает частоту запросов с одного IP в рамках scope.
// Ошибка ограничителя не блокирует запрос.
func NewRateLimitMiddleware(limiter portservices.RateLimiter, scope string) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := ctx.Context()
		key := scope + ":" + ctx.IP()
		log := logger.Log(requestCtx).With(zap.String("middleware", "rate_limit"), zap.String("scope", scope))

		allowed, retryAfter, err := limiter.Allow(requestCtx, key)
		if err != nil {
			log.Warn(requestCtx, logRateLimiterError, zap.Error(err))
			return ctx.Next()
		}
		if allowed {
			return ctx.Next()
		}

		log.Info(requestCtx, logRateLimited, zap.String("ip", ctx.IP()), zap.Duration("retry_after", retryAfter))
		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(retryAfter)))
		return ctx.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Status: fiber.StatusTooManyRequests,
			Error:  errTooManyRequests,
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
