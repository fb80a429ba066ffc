package auth

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// RefreshCookieName - имя cookie с refresh-токеном.
const RefreshCookieName = "refresh_token"

// DefaultCookiePath ограничивает отправку cookie маршрутами аутентификации.
const DefaultCookiePath = "/api/v1/auth"

// CookieConfig задает атрибуты cookie с refresh-токеном.
type CookieConfig struct {
	Secure bool
	Domain string
	Path   string
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return DefaultCookiePath
	}
	return c.Path
}

func (c CookieConfig) set(ctx fiber.Ctx, token string, expiresAt time.Time, now time.Time) {
	maxAge := int(expiresAt.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     c.path(),
		Domain:   c.Domain,
		MaxAge:   maxAge,
		Expires:  expiresAt,
		Secure:   c.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (c CookieConfig) clear(ctx fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     c.path(),
		Domain:   c.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   c.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
