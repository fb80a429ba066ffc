package config

import "fmt"

// Типы дискового хранилища.
const (
	DiskLocal       = "local"
	DiskObjectStore = "object-store"
)

// StorageConfig описывает хранилище загружаемых файлов.
// Объект строится один раз при загрузке конфигурации и передается явно.
type StorageConfig struct {
	DiskKind      string `yaml:"disk" env:"AUTH_STORAGE_DISK" env-default:"local" env-description:"local or object-store"`
	Root          string `yaml:"root" env:"AUTH_STORAGE_ROOT" env-default:"./storage"`
	Bucket        string `yaml:"bucket" env:"AUTH_STORAGE_BUCKET" env-default:""`
	PublicBaseURL string `yaml:"public_base_url" env:"AUTH_STORAGE_PUBLIC_BASE_URL" env-default:""`
	AccessKey     string `yaml:"access_key" env:"AUTH_STORAGE_ACCESS_KEY" env-default:""`
	SecretKey     string `yaml:"secret_key" env:"AUTH_STORAGE_SECRET_KEY" env-default:""`
	Region        string `yaml:"region" env:"AUTH_STORAGE_REGION" env-default:""`
}

// Validate проверяет, что для выбранного типа заданы обязательные поля.
func (c *StorageConfig) Validate() error {
	switch c.DiskKind {
	case DiskLocal:
		if c.Root == "" {
			return fmt.Errorf("%w: storage root is required for local disk", ErrInvalidConfig)
		}
	case DiskObjectStore:
		if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
			return fmt.Errorf("%w: bucket and credentials are required for object store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage disk %q", ErrInvalidConfig, c.DiskKind)
	}
	return nil
}
