package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"estatehub/internal/auth/domain/entities"
	"estatehub/pkg/logger"
)

const uniqueViolationCode = "23505"

const (
	queryCreateAccount = `
        INSERT INTO accounts (id, email, password_hash, role, name, phone, refresh_fingerprint)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, email, password_hash, role, name, phone, refresh_fingerprint, created_at, updated_at
    `
	queryFindAccountByID = `
        SELECT id, email, password_hash, role, name, phone, refresh_fingerprint, created_at, updated_at
        FROM accounts
        WHERE id = $1
    `
	queryFindAccountByEmail = `
        SELECT id, email, password_hash, role, name, phone, refresh_fingerprint, created_at, updated_at
        FROM accounts
        WHERE email = $1
    `
	querySetFingerprint = `
        UPDATE accounts
        SET refresh_fingerprint = $2, updated_at = NOW()
        WHERE id = $1
    `
	querySwapFingerprint = `
        UPDATE accounts
        SET refresh_fingerprint = $3, updated_at = NOW()
        WHERE id = $1 AND refresh_fingerprint = $2
    `
)

// PgxPoolInterface - подмножество pgxpool.Pool, нужное репозиторию.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
}

// AccountRepository хранит учетные записи в Postgres.
type AccountRepository struct {
	pool PgxPoolInterface
}

// NewAccountRepository создает репозиторий учетных записей.
func NewAccountRepository(pool PgxPoolInterface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var (
		account entities.Account
		role    string
	)
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.Name,
		&account.Phone,
		&account.RefreshFingerprint,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	account.Role = entities.Role(role)
	return &account, nil
}

// Create сохраняет новую учетную запись.
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) (*entities.Account, error) {
	log := logger.Log(ctx).With(zap.String("repository", "account"), zap.String("method", "Create"))

	created, err := scanAccount(r.pool.QueryRow(ctx, queryCreateAccount,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Role.String(),
		account.Name,
		account.Phone,
		account.RefreshFingerprint,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			log.Debug(ctx, "email already registered")
			return nil, entities.ErrEmailTaken
		}
		log.Error(ctx, "error creating account", zap.Error(err))
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return created, nil
}

// FindByID находит учетную запись по ID.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	log := logger.Log(ctx).With(zap.String("repository", "account"), zap.String("method", "FindByID"))

	account, err := scanAccount(r.pool.QueryRow(ctx, queryFindAccountByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "account not found", zap.String("id", id))
			return nil, entities.ErrAccountNotFound
		}
		log.Error(ctx, "error finding account by id", zap.Error(err))
		return nil, fmt.Errorf("error querying account by id: %w", err)
	}

	return account, nil
}

// FindByEmail находит учетную запись по нормализованному email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	log := logger.Log(ctx).With(zap.String("repository", "account"), zap.String("method", "FindByEmail"))

	account, err := scanAccount(r.pool.QueryRow(ctx, queryFindAccountByEmail, entities.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "account not found by email")
			return nil, entities.ErrAccountNotFound
		}
		log.Error(ctx, "error finding account by email", zap.Error(err))
		return nil, fmt.Errorf("error querying account by email: %w", err)
	}

	return account, nil
}

// SetRefreshFingerprint перезаписывает отпечаток refresh-токена.
func (r *AccountRepository) SetRefreshFingerprint(ctx context.Context, id, fingerprint string) error {
	log := logger.Log(ctx).With(zap.String("repository", "account"), zap.String("method", "SetRefreshFingerprint"))

	result, err := r.pool.Exec(ctx, querySetFingerprint, id, fingerprint)
	if err != nil {
		log.Error(ctx, "error updating refresh fingerprint", zap.Error(err))
		return fmt.Errorf("error updating refresh fingerprint: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "account not found for fingerprint update", zap.String("id", id))
		return entities.ErrAccountNotFound
	}

	return nil
}

// SwapRefreshFingerprint выполняет compare-and-set отпечатка одним UPDATE.
func (r *AccountRepository) SwapRefreshFingerprint(ctx context.Context, id, expected, next string) (bool, error) {
	log := logger.Log(ctx).With(zap.String("repository", "account"), zap.String("method", "SwapRefreshFingerprint"))

	result, err := r.pool.Exec(ctx, querySwapFingerprint, id, expected, next)
	if err != nil {
		log.Error(ctx, "error swapping refresh fingerprint", zap.Error(err))
		return false, fmt.Errorf("error swapping refresh fingerprint: %w", err)
	}

	swapped := result.RowsAffected() == 1
	if !swapped {
		log.Debug(ctx, "refresh fingerprint changed concurrently", zap.String("id", id))
	}
	return swapped, nil
}
