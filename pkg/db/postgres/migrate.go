package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// драйвер назначения и источник миграций для migrate.New.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"estatehub/pkg/logger"
)

const (
	logMigrationsApplied = "database migrations applied"
	logNoNewMigrations   = "database schema is up to date"

	errCreateMigrator  = "failed to create migration instance"
	errApplyMigrations = "failed to apply migrations"
)

// Migrate применяет все миграции из sourceURL (например file:///migrations/auth)
// к базе databaseURL. Отсутствие новых миграций не считается ошибкой.
func Migrate(ctx context.Context, sourceURL, databaseURL string) error {
	log := logger.Log(ctx).With(zap.String("source", sourceURL))

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("%s: %w", errCreateMigrator, err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn(ctx, "failed to close migrator", zap.NamedError("source_error", srcErr), zap.NamedError("db_error", dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info(ctx, logNoNewMigrations)
			return nil
		}
		return fmt.Errorf("%s: %w", errApplyMigrations, err)
	}

	log.Info(ctx, logMigrationsApplied)
	return nil
}
