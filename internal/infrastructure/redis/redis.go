package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/telemetry"
)

// Client is the cache backend of CachedRepository. Values are opaque byte
// strings with a per-key TTL.
type Client struct {
	rdb    *redis.Client
	tracer trace.Tracer
}

var _ Store = (*Client)(nil)

// options maps RedisConfig onto the driver's options. Durations in the
// config are whole seconds, except connection age and idle time in minutes.
func options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:     time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(cfg.WriteTimeout) * time.Second,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxConnAge:      time.Duration(cfg.MaxConnAge) * time.Minute,
		PoolTimeout:     time.Duration(cfg.PoolTimeout) * time.Second,
		IdleTimeout:     time.Duration(cfg.IdleTimeout) * time.Minute,
	}
}

// NewClient dials the like cache and fails when it does not answer a ping
func NewClient(ctx context.Context, cfg config.RedisConfig, tel *telemetry.Telemetry) (*Client, error) {
	rdb := redis.NewClient(options(cfg))
	rdb.AddHook(redisotel.NewTracingHook())

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("like cache at %s unreachable: %w", cfg.Addr, err)
	}

	telemetry.Log(ctx, telemetry.LevelInfo, "Like cache connected", nil,
		attribute.String("cache.addr", cfg.Addr),
		attribute.Int("cache.db", cfg.DB),
		attribute.Int("cache.ttl_secs", cfg.LikesTTL),
	)

	return &Client{rdb: rdb, tracer: tel.Tracer}, nil
}

// HealthCheck pings the cache
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "cache.ping")
	defer span.End()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("like cache ping: %w", err)
	}
	return nil
}

// PoolMetrics reports connection pool counters for the stats reporter
func (c *Client) PoolMetrics() map[string]int64 {
	return poolMetrics(c.rdb.PoolStats())
}

func poolMetrics(s *redis.PoolStats) map[string]int64 {
	return map[string]int64{
		"total":    int64(s.TotalConns),
		"idle":     int64(s.IdleConns),
		"stale":    int64(s.StaleConns),
		"hits":     int64(s.Hits),
		"misses":   int64(s.Misses),
		"timeouts": int64(s.Timeouts),
	}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Fetch reads key. A missing key is reported through found, not err.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := c.tracer.Start(ctx, "cache.fetch", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	value, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false, nil
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return value, true, nil
}

// Put stores value under key until ttl elapses
func (c *Client) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := c.tracer.Start(ctx, "cache.put", trace.WithAttributes(
		attribute.String("cache.key", key),
		attribute.Int("cache.bytes", len(value)),
		attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
	))
	defer span.End()

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Drop deletes keys; absent keys are ignored
func (c *Client) Drop(ctx context.Context, keys ...string) error {
	ctx, span := c.tracer.Start(ctx, "cache.drop", trace.WithAttributes(attribute.StringSlice("cache.keys", keys)))
	defer span.End()

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
