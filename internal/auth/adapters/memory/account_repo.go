// Package memory - хранилище учетных записей в памяти процесса.
package memory

import (
	"context"
	"sync"
	"time"

	"estatehub/internal/auth/domain/entities"
)

// AccountRepository хранит учетные записи в map под мьютексом.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entities.Account
	byEmail map[string]string
	now     func() time.Time
}

// NewAccountRepository создает пустое хранилище.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*entities.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// Create сохраняет копию учетной записи.
func (r *AccountRepository) Create(_ context.Context, account *entities.Account) (*entities.Account, error) {
	email := entities.NormalizeEmail(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return nil, entities.ErrEmailTaken
	}

	stored := *account
	stored.Email = email
	stored.CreatedAt = r.now().UTC()
	stored.UpdatedAt = stored.CreatedAt

	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID

	out := stored
	return &out, nil
}

// FindByID возвращает копию учетной записи.
func (r *AccountRepository) FindByID(_ context.Context, id string) (*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, entities.ErrAccountNotFound
	}
	out := *stored
	return &out, nil
}

// FindByEmail ищет учетную запись по нормализованному email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[entities.NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, entities.ErrAccountNotFound
	}
	return r.FindByID(ctx, id)
}

// SetRefreshFingerprint перезаписывает отпечаток.
func (r *AccountRepository) SetRefreshFingerprint(_ context.Context, id, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return entities.ErrAccountNotFound
	}
	stored.RefreshFingerprint = fingerprint
	stored.UpdatedAt = r.now().UTC()
	return nil
}

// SwapRefreshFingerprint заменяет отпечаток, если он равен expected.
func (r *AccountRepository) SwapRefreshFingerprint(_ context.Context, id, expected, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok || stored.RefreshFingerprint != expected {
		return false, nil
	}
	stored.RefreshFingerprint = next
	stored.UpdatedAt = r.now().UTC()
	return true, nil
}

// Len возвращает количество учетных записей.
func (r *AccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
