package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: "9000"
database:
  host: "db"
  port: "5432"
  user: "engine"
  password: "secret"
  dbname: "notifications"
engine:
  dedupLookback: 6h
  retentionDays: 30
`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.Server.Port)
		assert.Equal(t, "db", cfg.Database.Host)
		assert.Equal(t, 6*time.Hour, cfg.Engine.DedupLookback)
		assert.Equal(t, 30, cfg.Engine.RetentionDays)
	})

	t.Run("engine defaults apply", func(t *testing.T) {
		path := writeConfigFile(t, `
database:
  host: "db"
`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 4*time.Hour, cfg.Engine.DedupLookback)
		assert.Equal(t, 4*time.Hour, cfg.Engine.ScanHorizon)
		assert.Equal(t, 15*time.Minute, cfg.Engine.DigestWindow)
		assert.Equal(t, 2*time.Hour, cfg.Engine.DigestResendGuard)
		assert.Equal(t, 100, cfg.Engine.DigestMaxItems)
		assert.Equal(t, 90, cfg.Engine.RetentionDays)
		assert.Equal(t, "8085", cfg.Server.Port)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
