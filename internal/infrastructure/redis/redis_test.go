package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/telemetry"
)

func TestOptions(t *testing.T) {
	opts := options(config.RedisConfig{
		Addr:         "cache:6379",
		DB:           2,
		MaxRetries:   3,
		DialTimeout:  5,
		ReadTimeout:  3,
		WriteTimeout: 4,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxConnAge:   30,
		PoolTimeout:  6,
		IdleTimeout:  10,
	})

	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.Equal(t, 4*time.Second, opts.WriteTimeout)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 30*time.Minute, opts.MaxConnAge)
	assert.Equal(t, 6*time.Second, opts.PoolTimeout)
	assert.Equal(t, 10*time.Minute, opts.IdleTimeout)
}

func TestPoolMetrics(t *testing.T) {
	got := poolMetrics(&redis.PoolStats{Hits: 7, Misses: 2, Timeouts: 1, TotalConns: 5, IdleConns: 3, StaleConns: 1})

	assert.Equal(t, map[string]int64{
		"total": 5, "idle": 3, "stale": 1, "hits": 7, "misses": 2, "timeouts": 1,
	}, got)
}

func TestNewClient_Unreachable(t *testing.T) {
	tel, err := telemetry.NewNoop()
	require.NoError(t, err)

	_, err = NewClient(context.Background(), config.RedisConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 1,
		MaxRetries:  -1,
	}, tel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
