package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "memory", cfg.App.StoreDriver)
	assert.True(t, cfg.App.LogBodies)
	assert.Equal(t, "dating-api", cfg.Otel.ServiceName)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Discovery.DefaultPageSize)
	assert.Equal(t, 50, cfg.Discovery.MaxPageSize)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10, cfg.App.BcryptCost)
	assert.Equal(t, 15, cfg.App.StatsIntervalSecs)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DISCOVERY_DEFAULT_PAGE_SIZE", "25")
	t.Setenv("DISABLE_BODY_LOGGING", "true")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.App.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 25, cfg.Discovery.DefaultPageSize)
	assert.False(t, cfg.App.LogBodies)
}
