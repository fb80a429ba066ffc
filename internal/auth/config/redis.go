package config

import (
	"time"

	"estatehub/pkg/db/redis"
)

// RedisConfig представляет конфигурацию Redis для ограничителя запросов.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"AUTH_REDIS_HOST" env-default:"localhost"`
	Port     int           `yaml:"port" env:"AUTH_REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"AUTH_REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env:"AUTH_REDIS_DB" env-default:"0"`
	PoolSize int           `yaml:"pool_size" env:"AUTH_REDIS_POOL_SIZE" env-default:"10"`
	Timeout  time.Duration `yaml:"timeout" env:"AUTH_REDIS_TIMEOUT" env-default:"3s"`
}

// Client возвращает настройки клиента pkg/db/redis.
func (c *RedisConfig) Client() redis.Config {
	return redis.Config{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
		Timeout:  c.Timeout,
	}
}

// GetAddress возвращает адрес Redis.
func (c *RedisConfig) GetAddress() string {
	return c.Client().Addr()
}
