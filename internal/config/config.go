package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime settings loaded from environment variables.
type Config struct {
	Env               string        `env:"GATE_ENV" envDefault:"development"`
	RawSecretKey      string        `env:"GATE_SECRET_KEY"`
	DBPath            string        `env:"GATE_DB_PATH"`
	Host              string        `env:"GATE_HOST" envDefault:"127.0.0.1"`
	Port              string        `env:"GATE_PORT" envDefault:"5000"`
	RawCookieSecure   string        `env:"GATE_COOKIE_SECURE"`
	RawCookieSameSite string        `env:"GATE_COOKIE_SAMESITE" envDefault:"lax"`
	SessionMaxAge     time.Duration `env:"GATE_SESSION_MAX_AGE" envDefault:"720h"`
	RawDisableCSRF    string        `env:"GATE_DISABLE_CSRF"`
	TrustProxy        bool          `env:"GATE_TRUST_PROXY" envDefault:"false"`
	BaseURL           string        `env:"GATE_BASE_URL"`
	MinPasswordLen    int           `env:"GATE_MIN_PASSWORD_LEN" envDefault:"8"`
	AuthRateLimit     int           `env:"GATE_AUTH_RATE_LIMIT" envDefault:"20"`
	AuthRateWindow    time.Duration `env:"GATE_AUTH_RATE_WINDOW" envDefault:"1m"`
	FooterMarkdown    string        `env:"GATE_FOOTER_MARKDOWN" envDefault:"© [*Disha Gupta*]"`
	Brand             string        `env:"GATE_BRAND" envDefault:"gatehouse"`
	LogLevel          string        `env:"GATE_LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"GATE_LOG_FORMAT" envDefault:"text"`

	// Derived after parsing.
	IsProd         bool          `env:"-"`
	SecretKey      []byte        `env:"-"`
	CookieSecure   bool          `env:"-"`
	CookieSameSite http.SameSite `env:"-"`
	DisableCSRF    bool          `env:"-"`
}

// LoadConfig reads an optional .env file and the environment, applies defaults, and validates required settings.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.IsProd = c.Env == "production"

	if c.RawSecretKey == "" && c.IsProd {
		return errors.New("GATE_SECRET_KEY is required in production")
	}
	if c.RawSecretKey == "" {
		c.RawSecretKey = randomSecret(32)
	}
	c.SecretKey = []byte(c.RawSecretKey)

	if c.DBPath == "" {
		c.DBPath = filepath.Join(getBaseDir(), "gatehouse.db")
	}

	c.CookieSameSite = http.SameSiteLaxMode
	switch strings.ToLower(strings.TrimSpace(c.RawCookieSameSite)) {
	case "strict":
		c.CookieSameSite = http.SameSiteStrictMode
	case "none":
		c.CookieSameSite = http.SameSiteNoneMode
	}
	c.CookieSecure = parseBool(c.RawCookieSecure, c.IsProd)
	c.DisableCSRF = parseBool(c.RawDisableCSRF, !c.IsProd)

	if c.MinPasswordLen < 1 {
		return fmt.Errorf("GATE_MIN_PASSWORD_LEN must be positive, got %d", c.MinPasswordLen)
	}
	if c.AuthRateLimit < 1 {
		return fmt.Errorf("GATE_AUTH_RATE_LIMIT must be positive, got %d", c.AuthRateLimit)
	}
	if c.AuthRateWindow <= 0 {
		return fmt.Errorf("GATE_AUTH_RATE_WINDOW must be positive, got %s", c.AuthRateWindow)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("GATE_SESSION_MAX_AGE must be positive, got %s", c.SessionMaxAge)
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// SlogLevel maps the configured log level onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getBaseDir returns the working directory or executable directory as a fallback.
func getBaseDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// randomSecret returns a hex token, falling back to a timestamp on RNG failure.
func randomSecret(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// parseBool parses common boolean values and falls back when empty/invalid.
func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
