// Package ratelimit - ограничители частоты запросов с фиксированным окном.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "estatehub:auth:rl:"

// Ошибки ограничителя.
var (
	ErrInvalidWindow      = errors.New("invalid rate limit window")
	ErrUnexpectedResponse = errors.New("unexpected redis response")
)

// INCR + PEXPIRE в одном скрипте, чтобы счетчик и окно создавались атомарно.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[2])
end

if current > tonumber(ARGV[1]) then
  return {0, ttl}
end
return {1, ttl}
`)

// RedisLimiter - распределенный ограничитель на Redis.
type RedisLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter создает ограничитель: не более limit попыток за window на ключ.
func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow учитывает попытку для key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	windowMS := l.window.Milliseconds()
	if windowMS <= 0 {
		return false, 0, ErrInvalidWindow
	}

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.limit, windowMS).Result()
	if err != nil {
		return false, 0, fmt.Errorf("run rate limit script: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, ErrUnexpectedResponse
	}
	allowed, ok := vals[0].(int64)
	if !ok {
		return false, 0, ErrUnexpectedResponse
	}
	ttlMS, ok := vals[1].(int64)
	if !ok {
		return false, 0, ErrUnexpectedResponse
	}

	if allowed == 1 {
		return true, 0, nil
	}
	return false, max(time.Duration(ttlMS)*time.Millisecond, 0), nil
}
