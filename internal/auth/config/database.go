package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// PostgresConfig содержит настройки подключения к базе данных.
type PostgresConfig struct {
	Host           string        `yaml:"host" env:"AUTH_POSTGRES_HOST" env-default:"localhost" env-description:"postgres host"`
	Port           int           `yaml:"port" env:"AUTH_POSTGRES_PORT" env-default:"5432"`
	User           string        `yaml:"user" env:"AUTH_POSTGRES_USER" env-default:"postgres"`
	Password       string        `yaml:"password" env:"AUTH_POSTGRES_PASSWORD" env-default:"postgres"`
	Database       string        `yaml:"database" env:"AUTH_POSTGRES_DB" env-default:"estatehub"`
	SSLMode        string        `yaml:"ssl_mode" env:"AUTH_POSTGRES_SSL_MODE" env-default:"disable"`
	MinConn        int32         `yaml:"min_conn" env:"AUTH_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn        int32         `yaml:"max_conn" env:"AUTH_POSTGRES_MAX_CONN" env-default:"10"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"AUTH_POSTGRES_CONNECT_TIMEOUT" env-default:"5s"`
	MigrationsDir  string        `yaml:"migrations_dir" env:"AUTH_POSTGRES_MIGRATIONS_DIR" env-default:"migrations/auth"`
}

// GetDSN возвращает строку подключения к PostgreSQL для pgx.
func (p *PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// GetConnectionURL возвращает URL-строку подключения для миграций.
func (p *PostgresConfig) GetConnectionURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}
