package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ErlanBelekov/storefront-client/config"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test. Blank values fall back to envDefault.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ENV", "LOG_LEVEL", "API_BASE_URL", "HTTP_TIMEOUT_SEC", "STORAGE_NAME",
		"STATE_BACKEND", "STATE_DIR", "REDIS_ADDR", "DATABASE_URL",
		"PRODUCTS_PER_PAGE", "METRICS_PORT", "PORT", "JWT_SECRET",
		"ACCESS_TOKEN_TTL_MIN", "REFRESH_TOKEN_TTL_HOURS", "REVOCATION_PRUNE_CRON",
		"SECURE_COOKIES", "CHAT_IDLE_TTL_MIN", "DEMO_EMAIL", "DEMO_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL != "http://127.0.0.1:5000" || cfg.StateBackend != "file" || cfg.StorageName != "auth-storage" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ProductsPerPage != 12 || cfg.HTTPTimeout() != 0 {
		t.Errorf("per page = %d, timeout = %s", cfg.ProductsPerPage, cfg.HTTPTimeout())
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("level = %v", cfg.SlogLevel())
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_TIMEOUT_SEC", "15")
	t.Setenv("STATE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPTimeout() != 15*time.Second || cfg.SlogLevel() != slog.LevelDebug || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"redis without addr":    {"STATE_BACKEND": "redis"},
		"postgres without dsn":  {"STATE_BACKEND": "postgres"},
		"unknown backend":       {"STATE_BACKEND": "s3"},
		"relative base url":     {"API_BASE_URL": "localhost"},
		"per page out of range": {"PRODUCTS_PER_PAGE": "500"},
		"unknown log level":     {"LOG_LEVEL": "loud"},
		"non-numeric timeout":   {"HTTP_TIMEOUT_SEC": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := config.Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDevServer(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "dev-server-secret-at-least-32-chars")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "5")

	cfg, err := config.LoadDevServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AccessTokenTTL() != 5*time.Minute || cfg.RefreshTokenTTL() != 720*time.Hour {
		t.Errorf("ttls = %s / %s", cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	}
	if cfg.Port != "5000" || cfg.RevocationPruneCron != "@every 10m" || cfg.SecureCookies {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ChatIdleTTL() != 30*time.Minute {
		t.Errorf("chat idle ttl = %s, want 30m", cfg.ChatIdleTTL())
	}
}

func TestLoadDevServer_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":          {},
		"short secret":            {"JWT_SECRET": "short"},
		"zero chat idle ttl":      {"JWT_SECRET": "dev-server-secret-at-least-32-chars", "CHAT_IDLE_TTL_MIN": "0"},
		"demo without password":   {"JWT_SECRET": "dev-server-secret-at-least-32-chars", "DEMO_EMAIL": "demo@example.com"},
		"demo email not an email": {"JWT_SECRET": "dev-server-secret-at-least-32-chars", "DEMO_EMAIL": "demo", "DEMO_PASSWORD": "pw"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := config.LoadDevServer(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
