package config

import (
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func TestLoadConfigDevelopmentDefaults(t *testing.T) {
	t.Setenv("GATE_ENV", "")
	t.Setenv("GATE_SECRET_KEY", "")
	t.Setenv("GATE_DB_PATH", "/tmp/gate-test.db")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.IsProd {
		t.Fatalf("expected development mode")
	}
	if len(cfg.SecretKey) == 0 {
		t.Fatalf("expected generated secret key")
	}
	if !cfg.DisableCSRF {
		t.Fatalf("expected CSRF disabled outside production")
	}
	if cfg.CookieSecure {
		t.Fatalf("expected insecure cookies outside production")
	}
	if cfg.CookieSameSite != http.SameSiteLaxMode {
		t.Fatalf("expected lax same-site, got %v", cfg.CookieSameSite)
	}
	if cfg.SessionMaxAge != 720*time.Hour {
		t.Fatalf("unexpected session max age %s", cfg.SessionMaxAge)
	}
	if cfg.TrustProxy {
		t.Fatalf("expected proxy headers untrusted by default")
	}
	if cfg.Addr() != "127.0.0.1:5000" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadConfigRequiresSecretInProduction(t *testing.T) {
	t.Setenv("GATE_ENV", "production")
	t.Setenv("GATE_SECRET_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestLoadConfigProductionHardening(t *testing.T) {
	t.Setenv("GATE_ENV", "Production")
	t.Setenv("GATE_SECRET_KEY", "prod-secret")
	t.Setenv("GATE_COOKIE_SAMESITE", "strict")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.IsProd || !cfg.CookieSecure || cfg.DisableCSRF {
		t.Fatalf("expected production hardening, got %+v", cfg)
	}
	if cfg.CookieSameSite != http.SameSiteStrictMode {
		t.Fatalf("expected strict same-site, got %v", cfg.CookieSameSite)
	}
}

func TestLoadConfigRejectsBadLimits(t *testing.T) {
	t.Setenv("GATE_ENV", "")
	t.Setenv("GATE_AUTH_RATE_LIMIT", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected rate limit validation error")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := (Config{LogLevel: raw}).SlogLevel(); got != want {
			t.Fatalf("level %q: got %v want %v", raw, got, want)
		}
	}
}
