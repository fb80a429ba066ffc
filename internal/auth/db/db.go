// Package db поднимает базу данных сервиса аутентификации: миграции и пул pgx.
package db

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"estatehub/internal/auth/config"
	"estatehub/pkg/db/postgres"
	"estatehub/pkg/logger"
)

// Константы для сообщений логгера.
const (
	logDBInitializing    = "initializing authentication database"
	logDBInitialized     = "authentication database initialized successfully"
	logMigrationStarting = "starting database migrations for authentication service"
)

// Константы для сообщений об ошибках.
const (
	errDBMigrations = "failed to apply authentication database migrations"
	errDBConnection = "failed to connect to authentication database"
	errGetPath      = "failed to resolve migrations path"
)

// DB представляет соединение с базой данных сервиса авторизации.
type DB struct {
	database *postgres.Database
}

// New применяет миграции и открывает пул соединений.
func New(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	log := logger.Log(ctx)

	log.Info(ctx, logDBInitializing,
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int32("min_conn", cfg.MinConn),
		zap.Int32("max_conn", cfg.MaxConn))

	sourceURL, err := MigrationsSourceURL(cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errDBMigrations, err)
	}

	log.Info(ctx, logMigrationStarting, zap.String("migrations_path", sourceURL))
	if err := postgres.Migrate(ctx, sourceURL, cfg.GetConnectionURL()); err != nil {
		return nil, fmt.Errorf("%s: %w", errDBMigrations, err)
	}

	database, err := postgres.New(ctx, postgres.Options{
		DSN:            cfg.GetDSN(),
		MinConns:       cfg.MinConn,
		MaxConns:       cfg.MaxConn,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errDBConnection, err)
	}

	log.Info(ctx, logDBInitialized)
	return &DB{database: database}, nil
}

// MigrationsSourceURL превращает каталог миграций в file:// URL для golang-migrate.
func MigrationsSourceURL(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("%s: %w", errGetPath, err)
		}
		dir = abs
	}
	return "file://" + filepath.ToSlash(dir), nil
}

// Close закрывает соединение с базой данных.
func (db *DB) Close(ctx context.Context) {
	db.database.Close(ctx)
}

// Pool возвращает пул соединений с базой данных.
func (db *DB) Pool() *pgxpool.Pool {
	return db.database.Pool()
}

// Ping проверяет соединение с базой данных.
func (db *DB) Ping(ctx context.Context) error {
	return db.database.Ping(ctx)
}
