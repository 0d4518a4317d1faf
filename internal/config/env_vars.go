package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	configPathVar       = "CONFIG_PATH"
	appNameVar          = "APP_NAME"
	environmentVar      = "ENV"
	logLevelVar         = "LOG_LEVEL"
	baseURLVar          = "BASE_URL"
	httpTimeoutVar      = "HTTP_TIMEOUT"
	userAgentVar        = "USER_AGENT"
	retryOnForbiddenVar = "RETRY_ON_FORBIDDEN"
	sessionBackendVar   = "SESSION_BACKEND"
	sessionFileVar      = "SESSION_FILE"
	sessionKeyVar       = "SESSION_KEY"
	redisURLVar         = "REDIS_URL"
	redisPrefixVar      = "REDIS_PREFIX"

	productionEnv = "PRODUCTION"
)

func defaults() Settings {
	return Settings{
		AppName:          "Practice Back Office",
		Env:              "DEV",
		LogLevel:         "info",
		BaseURL:          "http://localhost:8000",
		HTTPTimeout:      30 * time.Second,
		RetryOnForbidden: true,
		SessionBackend:   "file",
		SessionFile:      defaultSessionFile(),
		RedisURL:         "redis://localhost:6379",
		RedisPrefix:      "backoffice",
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".backoffice-session.json"
	}
	return filepath.Join(dir, "backoffice", "session.json")
}

// loadDotEnv reads .env outside production; existing variables win.
func loadDotEnv() {
	if os.Getenv(environmentVar) == productionEnv {
		return
	}
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}

func loadFile(path string, s *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "parsing %s: %v", path, err)
	}
	return nil
}

func applyEnv(s *Settings) error {
	s.AppName = GetEnv(appNameVar, s.AppName)
	s.Env = GetEnv(environmentVar, s.Env)
	s.LogLevel = GetEnv(logLevelVar, s.LogLevel)
	s.BaseURL = GetEnv(baseURLVar, s.BaseURL)
	s.UserAgent = GetEnv(userAgentVar, s.UserAgent)
	s.SessionBackend = GetEnv(sessionBackendVar, s.SessionBackend)
	s.SessionFile = GetEnv(sessionFileVar, s.SessionFile)
	s.SessionKey = GetEnv(sessionKeyVar, s.SessionKey)
	s.RedisURL = GetEnv(redisURLVar, s.RedisURL)
	s.RedisPrefix = GetEnv(redisPrefixVar, s.RedisPrefix)

	if raw := os.Getenv(httpTimeoutVar); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s=%q: %v", httpTimeoutVar, raw, err)
		}
		s.HTTPTimeout = d
	}
	if raw := os.Getenv(retryOnForbiddenVar); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s=%q: %v", retryOnForbiddenVar, raw, err)
		}
		s.RetryOnForbidden = b
	}
	return nil
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
