package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/telemetry"
)

func TestNewClient_RejectsMemoryDriver(t *testing.T) {
	tel, err := telemetry.NewNoop()
	require.NoError(t, err)

	_, err = NewClient(context.Background(), config.Config{App: config.AppConfig{StoreDriver: "memory"}}, tel)
	assert.Error(t, err)
}

func TestNewClient_Sqlite(t *testing.T) {
	tel, err := telemetry.NewNoop()
	require.NoError(t, err)

	cfg := config.Config{
		App:    config.AppConfig{StoreDriver: "sqlite"},
		Sqlite: config.SqliteConfig{Path: "file:client_test?mode=memory&cache=shared"},
	}
	client, err := NewClient(context.Background(), cfg, tel)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "sqlite", client.System())
	assert.NoError(t, client.HealthCheck(context.Background()))
	assert.Equal(t, 1, client.GetStats().MaxOpenConnections)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "dating.db?_foreign_keys=on", withForeignKeys("dating.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", withForeignKeys("file:x?mode=memory"))
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "***", maskDSN("short"))
	assert.Equal(t, "host=local***disable", maskDSN("host=localhost user=me password=secret sslmode=disable"))
}
