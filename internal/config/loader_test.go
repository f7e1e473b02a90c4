package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CASES_PER_TEST_API_HOST", "FETCH_TIMEOUT", "MAPBOX_ACCESS_TOKEN",
		"BOUNDARIES_PATH", "ECHARTS_ASSETS_HOST", "CHART_THEME", "HTTP_ADDR",
		"OPS_ADDR", "BASE_PATH", "SESSION_TTL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.OpsAddr)
	assert.Equal(t, "/dashboard", cfg.BasePath)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "westeros", cfg.ChartTheme)
	assert.Equal(t, []string{"CASES_PER_TEST_API_HOST", "MAPBOX_ACCESS_TOKEN", "BOUNDARIES_PATH"}, cfg.Unconfigured())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("CASES_PER_TEST_API_HOST", "https://cases.example.com")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.test")
	t.Setenv("BOUNDARIES_PATH", "/srv/usa.json")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://cases.example.com", cfg.APIHost)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.Unconfigured())
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:7000\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrDotenv, cfgErr.Type)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad level":    {"LOG_LEVEL", "loud"},
		"bad host":     {"CASES_PER_TEST_API_HOST", "not a url"},
		"bad base":     {"BASE_PATH", "dashboard"},
		"zero timeout": {"FETCH_TIMEOUT", "0s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected config error, got %v", err)
			assert.Equal(t, ErrValidation, cfgErr.Type)
		})
	}
}

func TestLoadRejectsUnparsableDuration(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_TTL", "soon")
	_, err := Load()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrParsing, cfgErr.Type)
}
