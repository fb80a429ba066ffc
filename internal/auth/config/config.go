// Package config содержит конфигурацию сервиса аутентификации.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	pkgconfig "estatehub/pkg/config"
	"estatehub/pkg/logger"
)

// ServiceName - имя сервиса в логах конфигурации.
const ServiceName = "auth"

// PathEnv - переменная окружения с путем к файлу конфигурации.
const PathEnv = "AUTH_CONFIG_PATH"

const (
	logConfigSummary = "authentication service configuration"

	errLoadConfig     = "failed to load authentication configuration"
	errValidateConfig = "invalid authentication configuration"
)

// ErrInvalidConfig возвращается, когда значения конфигурации противоречат друг другу.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config представляет полную конфигурацию приложения.
type Config struct {
	Postgres  PostgresConfig  `yaml:"postgres"`
	Logging   LoggingConfig   `yaml:"logging"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`
	HTTP      HTTPConfig      `yaml:"http"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Store     StoreConfig     `yaml:"store"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Load загружает конфигурацию из файла AUTH_CONFIG_PATH или из окружения и проверяет ее.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, os.Getenv(PathEnv))
}

// LoadFrom загружает конфигурацию из path. Пустой path означает только окружение.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	log := logger.Log(ctx)

	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, errValidateConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errValidateConfig, err)
	}

	log.Info(ctx, logConfigSummary,
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.String("rate_limit_driver", cfg.RateLimit.Driver),
		zap.String("redis_address", cfg.Redis.GetAddress()),
		zap.Duration("access_token_ttl", cfg.JWT.AccessTokenTTL),
		zap.Duration("refresh_token_ttl", cfg.JWT.RefreshTokenTTL),
		zap.String("storage_disk", cfg.Storage.DiskKind),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Duration("shutdown_timeout", cfg.Shutdown.Timeout))

	return cfg, nil
}

// Validate проверяет связи между секциями конфигурации.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.JWT.Validate(), c.Store.Validate(), c.RateLimit.Validate(), c.Storage.Validate())
	if c.RateLimit.Enabled && c.RateLimit.Driver == RateLimitDriverRedis && c.Redis.Host == "" {
		errs = append(errs, fmt.Errorf("%w: redis host is required for redis rate limiter", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
