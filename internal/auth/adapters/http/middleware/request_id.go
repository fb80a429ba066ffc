// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"github.com/gofiber/fiber/v3"

	"estatehub/pkg/logger"
)

const maxRequestIDLength = 128

// NewRequestIDMiddleware берет X-Request-ID из запроса или генерирует новый,
// кладет его в контекст запроса и возвращает в ответе.
func NewRequestIDMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		id := ctx.Get(fiber.HeaderXRequestID)
		if len(id) > maxRequestIDLength {
			id = ""
		}

		requestCtx := logger.NewRequestIDContext(ctx.Context(), id)
		ctx.SetContext(requestCtx)

		id, _ = logger.GetRequestID(requestCtx)
		ctx.Set(fiber.HeaderXRequestID, id)

		return ctx.Next()
	}
}
