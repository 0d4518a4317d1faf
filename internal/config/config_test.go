package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-practice-client/internal/config"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CONFIG_PATH", "APP_NAME", "ENV", "LOG_LEVEL", "BASE_URL", "HTTP_TIMEOUT", "USER_AGENT",
		"RETRY_ON_FORBIDDEN", "SESSION_BACKEND", "SESSION_FILE", "SESSION_KEY", "REDIS_URL", "REDIS_PREFIX",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backoffice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := config.New(config.WithoutDotEnv())
	require.NoError(t, err)
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8000", c.GetBaseURL())
	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, "file", c.GetSessionBackend())
	require.NotEmpty(t, c.GetSessionFile())
	require.True(t, c.GetRetryOnForbidden())
	require.Equal(t, c.GetAppName(), c.GetUserAgent())
}

func TestNew_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
base_url: https://api.practice.example.com
http_timeout: 5s
log_level: debug
session_backend: redis
redis_url: redis://cache:6379/2
retry_on_forbidden: false
`)
	t.Setenv("LOG_LEVEL", "warn")

	c, err := config.New(config.WithoutDotEnv(), config.WithFile(path))
	require.NoError(t, err)
	require.Equal(t, "https://api.practice.example.com", c.GetBaseURL())
	require.Equal(t, 5*time.Second, c.GetHTTPTimeout())
	require.Equal(t, "warn", c.GetLogLevel(), "environment wins over the file")
	require.Equal(t, "redis", c.GetSessionBackend())
	require.Equal(t, "redis://cache:6379/2", c.GetRedisURL())
	require.False(t, c.GetRetryOnForbidden())
}

func TestNew_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "app_name: Acme Practice\n")
	t.Setenv("CONFIG_PATH", path)

	c, err := config.New(config.WithoutDotEnv())
	require.NoError(t, err)
	require.Equal(t, "Acme Practice", c.GetAppName())
}

func TestNew_OverrideWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "http://env.example.com")

	c, err := config.New(config.WithoutDotEnv(), config.WithOverride(func(s *config.Settings) {
		s.BaseURL = "http://flag.example.com"
	}))
	require.NoError(t, err)
	require.Equal(t, "http://flag.example.com", c.GetBaseURL())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad base url", env: map[string]string{"BASE_URL": "not a url"}},
		{name: "unknown backend", env: map[string]string{"SESSION_BACKEND": "sqlite"}},
		{name: "bad timeout", env: map[string]string{"HTTP_TIMEOUT": "soon"}},
		{name: "bad bool", env: map[string]string{"RETRY_ON_FORBIDDEN": "sometimes"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "session key not base64", env: map[string]string{"SESSION_KEY": "%%%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.New(config.WithoutDotEnv())
			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
		})
	}
}

func TestNew_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.New(config.WithoutDotEnv(), config.WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config file")
}
