package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, 1, cfg.CacheRedisDB)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "appPort: \"9000\"\ndbDriver: postgres\nsessionTTLSeconds: 60\ndefaultCurrency: mxn\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("ADMIN_EMAIL", "  Boss@Example.COM ")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.AppPort, "env wins over file")
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.SessionTTL())
	assert.Equal(t, "MXN", cfg.DefaultCurrency)
	assert.Equal(t, "boss@example.com", cfg.AdminEmail)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Run("session ttl", func(t *testing.T) {
		t.Setenv("SESSION_TTL_SECONDS", "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("db driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestDSN(t *testing.T) {
	cfg := Default()
	cfg.DBUser, cfg.DBPassword = "app", "secret"
	assert.Equal(t, "app:secret@tcp(localhost:3306)/general_store?parseTime=true", cfg.DSN())

	cfg.DBDriver, cfg.DBPort = "postgres", "5432"
	assert.Equal(t, "host=localhost port=5432 user=app password=secret dbname=general_store sslmode=disable", cfg.DSN())
}
