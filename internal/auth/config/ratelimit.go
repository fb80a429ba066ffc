package config

import (
	"fmt"
	"time"
)

// Драйверы ограничителя запросов.
const (
	RateLimitDriverRedis  = "redis"
	RateLimitDriverMemory = "memory"
)

// RateLimitConfig задает лимиты для login и register.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" env:"AUTH_RATE_LIMIT_ENABLED" env-default:"true"`
	Driver  string        `yaml:"driver" env:"AUTH_RATE_LIMIT_DRIVER" env-default:"memory" env-description:"redis or memory"`
	Limit   int           `yaml:"limit" env:"AUTH_RATE_LIMIT_LIMIT" env-default:"10"`
	Window  time.Duration `yaml:"window" env:"AUTH_RATE_LIMIT_WINDOW" env-default:"1m"`
	Prefix  string        `yaml:"prefix" env:"AUTH_RATE_LIMIT_PREFIX" env-default:"estatehub:auth:rl:"`
	// Порог и пауза автомата, переключающего Redis на ограничитель в памяти.
	BreakerThreshold int           `yaml:"breaker_threshold" env:"AUTH_RATE_LIMIT_BREAKER_THRESHOLD" env-default:"5"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" env:"AUTH_RATE_LIMIT_BREAKER_COOLDOWN" env-default:"10s"`
}

// Validate проверяет драйвер и окно ограничителя.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Driver != RateLimitDriverRedis && c.Driver != RateLimitDriverMemory {
		return fmt.Errorf("%w: unknown rate limit driver %q", ErrInvalidConfig, c.Driver)
	}
	if c.Limit <= 0 || c.Window <= 0 {
		return fmt.Errorf("%w: rate limit and window must be positive", ErrInvalidConfig)
	}
	return nil
}
