package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9000"
jwt:
  secret: short
  expire_hours: 2
storage:
  type: minio
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 10*time.Second, cfg.ConfigProvider.Timeout())
	assert.Equal(t, 120*time.Minute, cfg.Session.IdleTimeout())
	assert.Equal(t, 7*24*time.Hour, cfg.Session.DraftTTL())
	assert.Equal(t, int64(5), cfg.Storage.MaxImageMB)
	assert.Empty(t, cfg.ConfigProvider.BaseURL)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
jwt:
  secret: short
storage:
  type: minio
`)
	t.Setenv("CONFIG_PROVIDER_BASE_URL", "http://rules.local/api")
	t.Setenv("DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://rules.local/api", cfg.ConfigProvider.BaseURL)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
storage:
  type: minio
`)
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
