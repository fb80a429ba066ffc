package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"estatehub/internal/auth/adapters/http/dto"
	"estatehub/pkg/logger"
)

const (
	logServerPanic       = "server panic"
	logPanicResponseFail = "failed to send error response after panic"

	errInternalServer = "internal server error"
)

// NewRecoveryMiddleware создает промежуточное ПО для восстановления после паники.
func NewRecoveryMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) (err error) {
		requestCtx := ctx.Context()

		defer func() {
			if r := recover(); r != nil {
				log := logger.Log(requestCtx)
				log.Error(requestCtx, logServerPanic,
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())),
				)

				if sendErr := ctx.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
					Status: fiber.StatusInternalServerError,
					Error:  errInternalServer,
				}); sendErr != nil {
					log.Error(requestCtx, logPanicResponseFail, zap.Error(sendErr))
				}
				err = nil
			}
		}()

		return ctx.Next()
	}
}
