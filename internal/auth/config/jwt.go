package config

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// JWTConfig содержит настройки токенов и хеширования паролей.
type JWTConfig struct {
	AccessSecret    string        `yaml:"access_secret" env:"AUTH_JWT_ACCESS_SECRET" env-required:"true" env-description:"HMAC secret for access tokens"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"AUTH_JWT_REFRESH_SECRET" env-required:"true" env-description:"HMAC secret for refresh tokens"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"AUTH_JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"AUTH_JWT_REFRESH_TOKEN_TTL" env-default:"168h"`
	Leeway          time.Duration `yaml:"leeway" env:"AUTH_JWT_LEEWAY" env-default:"5s"`
	Issuer          string        `yaml:"issuer" env:"AUTH_JWT_ISSUER" env-default:"estatehub-auth"`
	BCryptCost      int           `yaml:"bcrypt_cost" env:"AUTH_JWT_BCRYPT_COST" env-default:"10"`
}

// Validate проверяет секреты, время жизни токенов и стоимость bcrypt.
func (c *JWTConfig) Validate() error {
	var errs []error
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		errs = append(errs, fmt.Errorf("%w: jwt secrets must not be empty", ErrInvalidConfig))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, fmt.Errorf("%w: access and refresh secrets must differ", ErrInvalidConfig))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: token ttl must be positive", ErrInvalidConfig))
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		errs = append(errs, fmt.Errorf("%w: access token ttl must be shorter than refresh token ttl", ErrInvalidConfig))
	}
	if c.Leeway < 0 {
		errs = append(errs, fmt.Errorf("%w: jwt leeway must not be negative", ErrInvalidConfig))
	}
	if c.BCryptCost < bcrypt.MinCost || c.BCryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("%w: bcrypt cost %d out of range", ErrInvalidConfig, c.BCryptCost))
	}
	return errors.Join(errs...)
}
