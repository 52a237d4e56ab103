package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("NUTRITION_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("NUTRITION_TEST_KEY", "fallback"))

	t.Setenv("NUTRITION_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnv("NUTRITION_TEST_KEY", "fallback"))
}

func TestReadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
env: production
database:
  host: db.internal
  dbname: nutri
kv:
  backend: redis
  redis:
    addr: cache:6379
jwt_secret: s3cret
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "db.internal", cfg.PostgresConfig.Host)
	assert.Equal(t, "nutri", cfg.PostgresConfig.DBName)
	assert.Equal(t, "5432", cfg.PostgresConfig.Port)
	assert.Equal(t, "redis", cfg.KV.Backend)
	assert.Equal(t, "cache:6379", cfg.KV.Redis.Addr)
	assert.Equal(t, 500, cfg.KV.DebounceMS)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestReadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unterminated"), 0o600))

	_, err := ReadConfig(path)
	assert.Error(t, err)
}

func TestLoadMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("KV_DEBOUNCE_MS", "250")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REVENUECAT_API_KEY", "rc_key")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 250, cfg.KV.DebounceMS)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.True(t, cfg.RevenueCat.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("KV_DEBOUNCE_MS", "soon")
	t.Setenv("CATALOG_WATCH", "maybe")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.KV.DebounceMS)
	assert.False(t, cfg.Catalog.Watch)
}

func TestDevelopmentFileParses(t *testing.T) {
	cfg, err := ReadConfig("development.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(missing)
	assert.ErrorIs(t, err, ErrInsecureSecret)

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load(missing)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
}
