package server

import (
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"gatehouse/internal/config"
	"gatehouse/internal/contracts"
	"gatehouse/internal/platform/core"
	"gatehouse/internal/platform/metrics"
	"gatehouse/internal/platform/ratelimit"
	sqlitestore "gatehouse/internal/platform/storage/sqlite"
	"gatehouse/web"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
)

// ErrNotLoggedIn is returned when the request carries no authenticated session.
var ErrNotLoggedIn = errors.New("not logged in")

// Server bundles dependencies for HTTP handlers.
type Server struct {
	cfg      config.Config
	db       *sql.DB
	store    *sessions.CookieStore
	tmpl     *template.Template
	reserved map[string]struct{}
	repos    contracts.Repos
	logger   *slog.Logger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
}

// NewServer configures dependencies and templates for handlers using the default SQLite-backed repositories.
func NewServer(cfg config.Config, db *sql.DB, logger *slog.Logger) (*Server, error) {
	return NewServerWithRepos(cfg, db, sqlitestore.NewRepos(db), logger)
}

// NewServerWithRepos constructs a new server with repos.
func NewServerWithRepos(cfg config.Config, db *sql.DB, repos contracts.Repos, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := sessions.NewCookieStore(cfg.SecretKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}

	tmpl, err := template.New("").ParseFS(web.Templates(), "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		cfg:      cfg,
		db:       db,
		store:    store,
		tmpl:     tmpl,
		reserved: map[string]struct{}{},
		repos:    repos,
		logger:   logger,
		metrics:  metrics.New(),
		limiter:  ratelimit.New(cfg.AuthRateLimit, cfg.AuthRateWindow),
	}, nil
}

// RegisterRoute mounts handler for method and pattern and reserves its first path segment.
func (s *Server) RegisterRoute(r chi.Router, method, pattern string, handler http.Handler) {
	r.Method(method, pattern, handler)
	if segment := routeSegment(pattern); segment != "" {
		s.reserved[segment] = struct{}{}
	}
}

// IsReserved reports whether the first segment of path belongs to a mounted endpoint.
func (s *Server) IsReserved(path string) bool {
	segment := routeSegment(path)
	if segment == "" {
		return false
	}
	_, ok := s.reserved[segment]
	return ok
}

// WithSecurityHeaders wraps the handler with additional behavior.
func (s *Server) WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self'; form-action 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// Config returns a copy of the server configuration.
func (s *Server) Config() config.Config {
	return s.cfg
}

// Repos returns the repository bundle for storage access.
func (s *Server) Repos() contracts.Repos {
	return s.repos
}

func (s *Server) DB() *sql.DB {
	return s.db
}

func (s *Server) Logger() *slog.Logger {
	return s.logger
}

func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// routeSegment returns the first URL path segment from a route pattern.
func routeSegment(pattern string) string {
	if pattern == "" || pattern == "/" {
		return ""
	}
	trimmed := strings.TrimPrefix(pattern, "/")
	segment := strings.SplitN(trimmed, "/", 2)[0]
	segment = strings.TrimSuffix(segment, "*")
	return strings.ToLower(segment)
}

// ensureCSRF ensures CSRF is initialized and available.
func (s *Server) ensureCSRF(session *sessions.Session) string {
	if token, ok := session.Values[core.SessionCSRFKey].(string); ok && token != "" {
		return token
	}
	token := core.RandomToken(32)
	session.Values[core.SessionCSRFKey] = token
	return token
}

// validateCSRF checks the submitted CSRF token unless disabled by config.
func (s *Server) validateCSRF(session *sessions.Session, token string) bool {
	if s.cfg.DisableCSRF {
		return true
	}
	stored, _ := session.Values[core.SessionCSRFKey].(string)
	if stored == "" || token == "" {
		return false
	}
	return core.SubtleCompare(stored, token)
}
