package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	reset time.Time
}

// MemoryLimiter - ограничитель в памяти одного процесса.
type MemoryLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	entries     map[string]*window
	lastCleanup time.Time
	now         func() time.Time
}

// NewMemoryLimiter создает ограничитель в памяти.
func NewMemoryLimiter(limit int, windowSize time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:       limit,
		window:      windowSize,
		entries:     make(map[string]*window),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// WithClock подменяет источник времени.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	l.lastCleanup = now()
	return l
}

// Allow учитывает попытку для key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.window <= 0 {
		return false, 0, ErrInvalidWindow
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= l.window {
		for k, w := range l.entries {
			if !now.Before(w.reset) {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	w, ok := l.entries[key]
	if !ok || !now.Before(w.reset) {
		l.entries[key] = &window{count: 1, reset: now.Add(l.window)}
		return true, 0, nil
	}

	if w.count >= l.limit {
		return false, w.reset.Sub(now), nil
	}
	w.count++
	return true, 0, nil
}

// Size возвращает число отслеживаемых ключей.
func (l *MemoryLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
