package services

import (
	"context"
	"time"
)

// RateLimiter ограничивает частоту операций по ключу.
type RateLimiter interface {
	// Allow учитывает попытку и возвращает false вместе со временем ожидания, если лимит исчерпан.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
