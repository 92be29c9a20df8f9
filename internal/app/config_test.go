package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TASKORBIT_COOKIE_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Driver)
	require.Equal(t, "taskorbit.db", cfg.DatabaseFile)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, "dev", cfg.Env)
	require.False(t, cfg.SecureCookie) // dev default
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("TASKORBIT_COOKIE_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigPostgres(t *testing.T) {
	t.Setenv("TASKORBIT_COOKIE_SECRET", "test-secret")
	t.Setenv("TASKORBIT_DRIVER", "postgres")

	_, err := LoadConfig()
	require.Error(t, err) // missing user/database

	t.Setenv("TASKORBIT_PG_USER", "orbit")
	t.Setenv("TASKORBIT_PG_DATABASE", "taskorbit")
	t.Setenv("TASKORBIT_PG_SCHEMA", "staging")
	t.Setenv("TASKORBIT_SESSION_TTL", "2h")
	t.Setenv("ENV", "prod")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Driver)
	require.Equal(t, "staging", cfg.PGSchema)
	require.Equal(t, 2*time.Hour, cfg.SessionTTL)
	require.True(t, cfg.SecureCookie)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TASKORBIT_COOKIE_SECRET", "test-secret")
	t.Setenv("TASKORBIT_DRIVER", "oracle")

	_, err := LoadConfig()
	require.Error(t, err)
}
