package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderconsole/internal/config"
)

func TestConsoleDefaults(t *testing.T) {
	v, err := config.New("")
	require.NoError(t, err)

	cfg, err := config.Console(v)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Zero(t, cfg.Timeout)
	assert.True(t, cfg.ItemDetails)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConsoleFromEnv(t *testing.T) {
	t.Setenv("CONSOLE_BASE_URL", "http://orders.internal:9000")
	t.Setenv("CONSOLE_TIMEOUT", "5s")
	t.Setenv("CONSOLE_ITEM_DETAILS", "false")

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Console(v)
	require.NoError(t, err)

	assert.Equal(t, "http://orders.internal:9000", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.False(t, cfg.ItemDetails)
}

func TestConsoleRejectsNegativeTimeout(t *testing.T) {
	v, err := config.New("")
	require.NoError(t, err)
	v.Set(config.KeyConsoleTimeout, "-1s")

	_, err = config.Console(v)
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("CONSOLE_BASE_URL: http://from-file:8080\nDATABASE_DRIVER: memory\n"), 0o600))

	v, err := config.New(path)
	require.NoError(t, err)

	cfg, err := config.Console(v)
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:8080", cfg.BaseURL)

	srv, err := config.Server(v)
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, srv.DatabaseDriver)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestServerDefaultsAndValidation(t *testing.T) {
	v, err := config.New("")
	require.NoError(t, err)

	cfg, err := config.Server(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, config.DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "orders.db", cfg.DatabaseDSN)
	assert.Empty(t, cfg.RabbitMQURL)

	v.Set(config.KeyDatabaseDriver, "mysql")
	_, err = config.Server(v)
	assert.Error(t, err)

	v.Set(config.KeyDatabaseDriver, "postgres")
	v.Set(config.KeyDatabaseDSN, "")
	_, err = config.Server(v)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := config.NewLogger("debug")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())

	_, err = config.NewLogger("loud")
	assert.Error(t, err)
}
