// Package redis создает клиент go-redis с проверкой соединения.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"estatehub/pkg/logger"
)

const (
	logConnected = "connected to redis"
	logClosing   = "closing redis client"

	errConnect = "failed to connect to redis"
	errClose   = "failed to close redis client"
)

// Client владеет соединением с Redis.
type Client struct {
	rdb *redis.Client
}

// NewClient подключается к Redis и выполняет PING.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	pingCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", errConnect, err)
	}

	logger.Log(ctx).Info(ctx, logConnected, zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))
	return &Client{rdb: rdb}, nil
}

// Raw возвращает исходный клиент go-redis.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// Ping проверяет доступность Redis.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", errConnect, err)
	}
	return nil
}

// Close закрывает соединение.
func (c *Client) Close(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, logClosing)
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("%s: %w", errClose, err)
	}
	return nil
}
