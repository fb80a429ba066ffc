package config

import "fmt"

// Драйверы хранилища учетных записей.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// StoreConfig выбирает реализацию хранилища учетных записей.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"AUTH_STORE_DRIVER" env-default:"postgres" env-description:"postgres or memory"`
}

// Validate проверяет драйвер хранилища.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
		return nil
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Driver)
	}
}
