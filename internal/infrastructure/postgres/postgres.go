package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/telemetry"
)

// Client wraps gorm.DB with additional functionality
type Client struct {
	*gorm.DB
	sqlDB  *sql.DB
	system string
	tracer trace.Tracer
}

// NewClient opens the relational store selected by cfg.App.StoreDriver
func NewClient(ctx context.Context, cfg config.Config, tel *telemetry.Telemetry) (*Client, error) {
	switch cfg.App.StoreDriver {
	case "postgres":
		return NewPostgresClient(ctx, cfg.Postgres, tel)
	case "sqlite":
		return NewSqliteClient(ctx, cfg.Sqlite.Path, tel)
	default:
		return nil, fmt.Errorf("store driver %q is not a relational driver", cfg.App.StoreDriver)
	}
}

// NewPostgresClient creates a Postgres client with a configured connection pool
func NewPostgresClient(ctx context.Context, cfg config.PostgresConfig, tel *telemetry.Telemetry) (*Client, error) {
	c, err := open(ctx, "postgresql", postgres.Open(cfg.DSN), tel)
	if err != nil {
		return nil, err
	}

	c.sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	c.sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	c.sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	c.sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	telemetry.Log(ctx, telemetry.LevelInfo, "Successfully connected to Postgres with GORM", nil,
		attribute.String("postgres.dsn", maskDSN(cfg.DSN)),
		attribute.Int("postgres.max_open_conns", cfg.MaxOpenConns),
		attribute.Int("postgres.max_idle_conns", cfg.MaxIdleConns),
	)
	return c, nil
}

// NewSqliteClient opens a sqlite database at path. Paths such as
// "file:name?mode=memory&cache=shared" give a private in-memory database.
func NewSqliteClient(ctx context.Context, path string, tel *telemetry.Telemetry) (*Client, error) {
	c, err := open(ctx, "sqlite", sqlite.Open(withForeignKeys(path)), tel)
	if err != nil {
		return nil, err
	}

	// sqlite serialises writers; one connection avoids "database is locked"
	c.sqlDB.SetMaxOpenConns(1)

	telemetry.Log(ctx, telemetry.LevelInfo, "Successfully opened sqlite with GORM", nil,
		attribute.String("sqlite.path", path),
	)
	return c, nil
}

func open(ctx context.Context, system string, dialector gorm.Dialector, tel *telemetry.Telemetry) (*Client, error) {
	level := logger.Warn
	if telemetry.GetLogVerbosity() >= 2 {
		level = logger.Info
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm %s connection: %w", system, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", system, err)
	}

	return &Client{
		DB:     gormDB,
		sqlDB:  sqlDB,
		system: system,
		tracer: tel.Tracer,
	}, nil
}

// System returns the db.system attribute value for spans
func (c *Client) System() string {
	return c.system
}

// Tracer returns the tracer used for store spans
func (c *Client) Tracer() trace.Tracer {
	return c.tracer
}

// HealthCheck performs a health check on the database connection
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, c.system+".health_check")
	defer span.End()

	if err := c.sqlDB.PingContext(ctx); err != nil {
		span.SetAttributes(attribute.Bool("db.healthy", false))
		return fmt.Errorf("%s health check failed: %w", c.system, err)
	}

	span.SetAttributes(attribute.Bool("db.healthy", true))
	return nil
}

// GetStats returns database statistics
func (c *Client) GetStats() sql.DBStats {
	return c.sqlDB.Stats()
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.sqlDB.Close()
}

// AutoMigrate runs auto migration for given models
func (c *Client) AutoMigrate(ctx context.Context, dst ...interface{}) error {
	ctx, span := c.tracer.Start(ctx, c.system+".auto_migrate")
	defer span.End()

	if err := c.DB.WithContext(ctx).AutoMigrate(dst...); err != nil {
		span.SetAttributes(attribute.Bool("db.error", true))
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	span.SetAttributes(attribute.Bool("migration.success", true))
	return nil
}

// Transaction executes a function within a database transaction
func (c *Client) Transaction(ctx context.Context, fn func(*gorm.DB) error) error {
	ctx, span := c.tracer.Start(ctx, c.system+".transaction")
	defer span.End()

	err := c.DB.WithContext(ctx).Transaction(fn)
	if err != nil {
		span.SetAttributes(attribute.Bool("db.error", true))
		return fmt.Errorf("transaction failed: %w", err)
	}

	span.SetAttributes(attribute.Bool("transaction.success", true))
	return nil
}

// maskDSN masks sensitive information in DSN for logging
func maskDSN(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:10] + "***" + dsn[len(dsn)-7:]
	}
	return "***"
}

func withForeignKeys(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}
