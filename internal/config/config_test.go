package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DATABASE_URL", "postgres://localhost/test")
	t.Setenv("CACHE_DRIVER", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/test", cfg.DB.DatabaseURL)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "0.0005", cfg.Fees.Satoshi.FixedFee)
	assert.Equal(t, int32(2), cfg.Fees.Bank.Precision)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
