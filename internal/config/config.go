package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
)

type Config interface {
	EnvConfig
	HTTPConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
}

type HTTPConfig interface {
	GetHTTPTimeout() time.Duration
	GetUserAgent() string
	GetRetryOnForbidden() bool
}

type SessionConfig interface {
	GetSessionBackend() string
	GetSessionFile() string
	GetSessionKey() string
	GetRedisURL() string
	GetRedisPrefix() string
}

// Settings is the merged view of defaults, the YAML file and the environment.
type Settings struct {
	AppName          string        `yaml:"app_name" validate:"required"`
	Env              string        `yaml:"env" validate:"required"`
	LogLevel         string        `yaml:"log_level" validate:"oneof=trace debug info warn error disabled"`
	BaseURL          string        `yaml:"base_url" validate:"required,url"`
	HTTPTimeout      time.Duration `yaml:"http_timeout" validate:"gt=0"`
	UserAgent        string        `yaml:"user_agent"`
	RetryOnForbidden bool          `yaml:"retry_on_forbidden"`
	SessionBackend   string        `yaml:"session_backend" validate:"oneof=file redis memory"`
	SessionFile      string        `yaml:"session_file" validate:"required_if=SessionBackend file"`
	SessionKey       string        `yaml:"session_key" validate:"omitempty,base64"`
	RedisURL         string        `yaml:"redis_url" validate:"required_if=SessionBackend redis"`
	RedisPrefix      string        `yaml:"redis_prefix"`
}

type mainConfig struct {
	settings Settings
}

var _ Config = mainConfig{}

// Option adjusts how the configuration is loaded.
type Option func(*loader)

type loader struct {
	filePath  string
	dotEnv    bool
	overrides []func(*Settings)
}

// WithFile reads the given YAML file instead of CONFIG_PATH.
func WithFile(path string) Option {
	return func(l *loader) {
		l.filePath = path
	}
}

// WithoutDotEnv skips loading a .env file.
func WithoutDotEnv() Option {
	return func(l *loader) {
		l.dotEnv = false
	}
}

// WithOverride applies fn after every other source, e.g. for command line flags.
func WithOverride(fn func(*Settings)) Option {
	return func(l *loader) {
		l.overrides = append(l.overrides, fn)
	}
}

// New loads defaults, then the YAML file, then the environment, and validates the result.
func New(options ...Option) (Config, error) {
	l := &loader{dotEnv: true}
	for _, opt := range options {
		opt(l)
	}

	if l.dotEnv {
		loadDotEnv()
	}

	s := defaults()

	path := l.filePath
	if path == "" {
		path = GetEnv(configPathVar, "")
	}
	if path != "" {
		if err := loadFile(path, &s); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&s); err != nil {
		return nil, err
	}

	for _, fn := range l.overrides {
		fn(&s)
	}

	if err := validate(s); err != nil {
		return nil, err
	}
	return mainConfig{settings: s}, nil
}

func validate(s Settings) error {
	if err := validator.New().Struct(s); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "%v", err)
	}
	return nil
}

func (c mainConfig) GetAppName() string  { return c.settings.AppName }
func (c mainConfig) GetEnv() string      { return c.settings.Env }
func (c mainConfig) GetLogLevel() string { return c.settings.LogLevel }
func (c mainConfig) GetBaseURL() string  { return c.settings.BaseURL }

func (c mainConfig) GetHTTPTimeout() time.Duration { return c.settings.HTTPTimeout }

func (c mainConfig) GetUserAgent() string {
	if c.settings.UserAgent != "" {
		return c.settings.UserAgent
	}
	return c.settings.AppName
}

// GetRetryOnForbidden reports whether a 403 is treated like a 401 (refresh and retry once).
func (c mainConfig) GetRetryOnForbidden() bool { return c.settings.RetryOnForbidden }

func (c mainConfig) GetSessionBackend() string { return c.settings.SessionBackend }
func (c mainConfig) GetSessionFile() string    { return c.settings.SessionFile }
func (c mainConfig) GetSessionKey() string     { return c.settings.SessionKey }
func (c mainConfig) GetRedisURL() string       { return c.settings.RedisURL }
func (c mainConfig) GetRedisPrefix() string    { return c.settings.RedisPrefix }
