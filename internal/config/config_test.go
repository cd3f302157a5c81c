package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-console/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.True(t, c.IsDev())
	require.Equal(t, 10*time.Second, c.GetRequestTimeout())
	require.Equal(t, time.Hour, c.GetDefaultAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetDefaultRefreshTokenExpiry())
	require.Equal(t, 5*time.Minute, c.GetRolesCacheTTL())
	require.True(t, c.GetSecureCookies())
	require.Equal(t, []string{"https://fonts.googleapis.com"}, c.GetStyleSources())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("ENV", "PROD")
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("CSP_CONNECT_SOURCES", "https://api.example.com,wss://events.example.com")

	c, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":9090", c.GetPort())
	require.False(t, c.IsDev())
	require.Equal(t, "https://api.example.com", c.GetAPIBaseURL())
	require.Equal(t, 3*time.Second, c.GetRequestTimeout())
	require.Equal(t, []string{"https://api.example.com", "wss://events.example.com"}, c.GetConnectSources())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	yaml := "env:\n  app_name: Dispatch Console\ncredentials:\n  access_token_ttl: 30m\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "Dispatch Console", c.GetAppName())
	require.Equal(t, 30*time.Minute, c.GetDefaultAccessTokenExpiry())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
