package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "ticketing-snapshots", cfg.Storage.Bucket)
	assert.Equal(t, "ticketing.synchronization", cfg.Broker.Queue)

	assert.Equal(t, 13, cfg.Sync.LookbackMonths)
	assert.Equal(t, 300, cfg.Sync.TransactionTimeoutSeconds)
	assert.Equal(t, 4, cfg.Sync.MaxParallelConnections)
	assert.Equal(t, 0, cfg.Sync.ScheduleIntervalMinutes)
	assert.Equal(t, "database", cfg.Sync.LockBackend)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	// registered so the values written by the .env file are restored afterwards
	t.Setenv("SYNC_LOOKBACK_MONTHS", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("SYNC_LOCK_BACKEND", "redis")

	dir := t.TempDir()
	env := "SYNC_LOOKBACK_MONTHS=6\nDATABASE_DRIVER=sqlite\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Sync.LookbackMonths)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Sync.LockBackend)
}

func TestBindValues(t *testing.T) {
	v := viper.New()
	bindValues(v, Config{}, "")

	assert.True(t, v.IsSet("sync.client_cache_ttl_minutes"))
	assert.Equal(t, "60", v.GetString("sync.client_cache_ttl_minutes"))
	assert.True(t, v.IsSet("server.api_key"))
	assert.Equal(t, "", v.GetString("server.api_key"))
}
