package redis_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/pkg/db/redis"
)

func configFor(t *testing.T, mr *miniredis.Miniredis) redis.Config {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return redis.Config{Host: mr.Host(), Port: port, PoolSize: 2, Timeout: time.Second}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redis.NewClient(ctx, configFor(t, mr))
	require.NoError(t, err)

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Raw().Set(ctx, "key", "value", 0).Err())
	mr.CheckGet(t, "key", "value")
	require.NoError(t, client.Close(ctx))
}

func TestNewClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(t, mr)
	mr.Close()

	client, err := redis.NewClient(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, client)
}

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", redis.Config{Host: "localhost", Port: 6379}.Addr())
}
