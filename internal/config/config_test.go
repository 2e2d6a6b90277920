package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath(), cfg.DB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "filter", cfg.Strategy)
	assert.Equal(t, 0, cfg.Shards)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, []string{"*"}, cfg.CorsOrigins)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PLAYCALL_STRATEGY", "index")
	t.Setenv("PLAYCALL_SHARDS", "4")
	t.Setenv("PLAYCALL_CACHE_TTL", "30s")
	t.Setenv("PLAYCALL_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("PLAYCALL_CORS_ORIGINS", "http://localhost:5173, https://playcall.example")

	cfg, err := Load(New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "index", cfg.Strategy)
	assert.Equal(t, 4, cfg.Shards)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "redis://localhost:6379/2", cfg.RedisURL)
	assert.Equal(t, []string{"http://localhost:5173", "https://playcall.example"}, cfg.CorsOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playcall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: /tmp/plays.db\nlisten: \":9090\"\nlog_level: debug\n"), 0o644))

	cfg, err := Load(New(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/plays.db", cfg.DB)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PLAYCALL_LISTEN=:7070\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PLAYCALL_LISTEN") })

	cfg, err := Load(New(), "", path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	_, err := Load(New(), "", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)

	t.Setenv("PLAYCALL_STRATEGY", "heap")
	_, err = Load(New(), "", "")
	assert.ErrorContains(t, err, "strategy")
}

func TestValidate(t *testing.T) {
	ok := Config{Strategy: "filter", LogLevel: "warn"}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Shards = -1
	assert.Error(t, bad.Validate())

	bad = ok
	bad.CacheTTL = -time.Second
	assert.Error(t, bad.Validate())
}

func TestApplyLogging(t *testing.T) {
	prev := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(prev) })

	(&Config{LogLevel: "debug"}).ApplyLogging()
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	(&Config{LogLevel: "nonsense"}).ApplyLogging()
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
