package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"estatehub/internal/auth/ports/services"
	"estatehub/pkg/logger"
)

// BreakerState - состояние автомата размыкания.
type BreakerState int

// Состояния автомата размыкания.
const (
	// StateClosed - запросы идут в основной ограничитель.
	StateClosed BreakerState = iota
	// StateOpen - основной ограничитель пропускается до истечения Cooldown.
	StateOpen
	// StateHalfOpen - пробные запросы в основной ограничитель.
	StateHalfOpen
)

const (
	logBreakerTripped = "rate limiter breaker tripped, using fallback"
	logBreakerReset   = "rate limiter breaker reset"
	logBreakerProbe   = "rate limiter breaker probing primary"
	logPrimaryFailed  = "primary rate limiter failed"
)

// BreakerConfig задает пороги переключения.
type BreakerConfig struct {
	// FailureThreshold - число ошибок подряд до размыкания.
	FailureThreshold int
	// Cooldown - время до пробного обращения к основному ограничителю.
	Cooldown time.Duration
	// SuccessThreshold - число успешных проб до замыкания.
	SuccessThreshold int
}

// DefaultBreakerConfig возвращает пороги по умолчанию.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         10 * time.Second,
		SuccessThreshold: 2,
	}
}

// Breaker - автомат размыкания для основного ограничителя.
type Breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	state     BreakerState
	failures  int
	successes int
	changedAt time.Time
	now       func() time.Time
}

// NewBreaker создает замкнутый автомат.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	return &Breaker{cfg: cfg, now: time.Now, changedAt: time.Now()}
}

// WithClock подменяет источник времени.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	b.changedAt = now()
	return b
}

// State возвращает текущее состояние.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow сообщает, можно ли обращаться к основному ограничителю.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true
	}
	if b.now().Sub(b.changedAt) < b.cfg.Cooldown {
		return false
	}

	b.setState(StateHalfOpen)
	logger.Log(ctx).Info(ctx, logBreakerProbe)
	return true
}

// Record учитывает результат обращения к основному ограничителю.
func (b *Breaker) Record(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.successes = 0
		b.failures++
		if b.state == StateHalfOpen || (b.state == StateClosed && b.failures >= b.cfg.FailureThreshold) {
			logger.Log(ctx).Warn(ctx, logBreakerTripped, zap.Int("failures", b.failures), zap.Error(err))
			b.setState(StateOpen)
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			logger.Log(ctx).Info(ctx, logBreakerReset)
			b.failures = 0
			b.setState(StateClosed)
		}
	}
}

func (b *Breaker) setState(state BreakerState) {
	b.state = state
	b.changedAt = b.now()
	b.successes = 0
}

// FallbackLimiter обращается к основному ограничителю, а при его отказах
// переключается на резервный до восстановления.
type FallbackLimiter struct {
	primary  services.RateLimiter
	fallback services.RateLimiter
	breaker  *Breaker
}

// NewFallbackLimiter создает ограничитель с резервом.
func NewFallbackLimiter(primary, fallback services.RateLimiter, breaker *Breaker) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, fallback: fallback, breaker: breaker}
}

// Allow реализует services.RateLimiter.
func (l *FallbackLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if !l.breaker.Allow(ctx) {
		return l.fallback.Allow(ctx, key)
	}

	allowed, retryAfter, err := l.primary.Allow(ctx, key)
	l.breaker.Record(ctx, err)
	if err != nil {
		logger.Log(ctx).Debug(ctx, logPrimaryFailed, zap.Error(err))
		return l.fallback.Allow(ctx, key)
	}
	return allowed, retryAfter, nil
}
