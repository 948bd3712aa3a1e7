package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	rq := require.New(t)
	unsetenv(t, "PORT", "DATABASE_URL", "CACHE_TTL", "LOG_FORMAT", "MAX_UNITS_PER_ORDER", "MAX_UNITS_PER_CUSTOMER")

	cfg, err := Load()
	rq.NoError(err)
	rq.Equal("8080", cfg.Port)
	rq.Empty(cfg.DatabaseURL)
	rq.Equal(30*time.Second, cfg.CacheTTL)
	rq.Equal("json", cfg.LogFormat)
	rq.EqualValues(10, cfg.Limits.MaxUnitsPerOrder)
	rq.EqualValues(20, cfg.Limits.MaxUnitsPerCustomer)
}

// unsetenv clears keys for the test and restores them afterwards.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	rq := require.New(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("MAX_UNITS_PER_ORDER", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	rq.NoError(err)
	rq.Equal("9090", cfg.Port)
	rq.Equal(2*time.Minute, cfg.CacheTTL)
	rq.EqualValues(3, cfg.Limits.MaxUnitsPerOrder)
	rq.Equal(slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestSlogLevel_UnknownIsInfo(t *testing.T) {
	require.Equal(t, slog.LevelInfo, Config{LogLevel: "loud"}.SlogLevel())
}
