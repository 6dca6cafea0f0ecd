package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config drives the storefront shell and the client packages it wires.
type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	APIBaseURL     string `env:"API_BASE_URL"     envDefault:"http://127.0.0.1:5000" validate:"required,url"`
	HTTPTimeoutSec int    `env:"HTTP_TIMEOUT_SEC" envDefault:"0"                     validate:"min=0,max=300"`

	StorageName  string `env:"STORAGE_NAME"  envDefault:"auth-storage" validate:"required"`
	StateBackend string `env:"STATE_BACKEND" envDefault:"file"         validate:"oneof=file redis postgres memory"`
	StateDir     string `env:"STATE_DIR"     envDefault:".storefront"`
	RedisAddr    string `env:"REDIS_ADDR"    validate:"required_if=StateBackend redis"`
	DatabaseURL  string `env:"DATABASE_URL"  validate:"required_if=StateBackend postgres"`

	ProductsPerPage int    `env:"PRODUCTS_PER_PAGE" envDefault:"12" validate:"min=1,max=100"`
	MetricsPort     string `env:"METRICS_PORT"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

// HTTPTimeout is zero when the transport default (no deadline) applies.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// DevServerConfig drives cmd/devserver, the local stand-in for the backend.
type DevServerConfig struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`
	Port     string `env:"PORT"      envDefault:"5000"  validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret           string `env:"JWT_SECRET,required"       validate:"required,min=32"`
	AccessTokenTTLMin   int    `env:"ACCESS_TOKEN_TTL_MIN"      envDefault:"15"          validate:"min=1,max=1440"`
	RefreshTokenTTLHour int    `env:"REFRESH_TOKEN_TTL_HOURS"   envDefault:"720"         validate:"min=1,max=8760"`
	RevocationPruneCron string `env:"REVOCATION_PRUNE_CRON"     envDefault:"@every 10m"  validate:"required"`
	SecureCookies       bool   `env:"SECURE_COOKIES"            envDefault:"false"`
	ChatIdleTTLMin      int    `env:"CHAT_IDLE_TTL_MIN"         envDefault:"30"          validate:"min=1,max=1440"`

	// DemoEmail and DemoPassword, when both set, seed one account at startup.
	DemoEmail    string `env:"DEMO_EMAIL"    validate:"omitempty,email"`
	DemoPassword string `env:"DEMO_PASSWORD" validate:"required_with=DemoEmail"`
}

func LoadDevServer() (*DevServerConfig, error) {
	cfg := &DevServerConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *DevServerConfig) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

func (c *DevServerConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

func (c *DevServerConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLHour) * time.Hour
}

func (c *DevServerConfig) ChatIdleTTL() time.Duration {
	return time.Duration(c.ChatIdleTTLMin) * time.Minute
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
