package wiring

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/domain"

	"github.com/gorilla/sessions"
)

// Platform helpers.
func (d Deps) Config() config.Config {
	return d.srv.Config()
}

func (d Deps) Logger() *slog.Logger {
	return d.srv.Logger()
}

func (d Deps) DB() *sql.DB {
	return d.srv.DB()
}

// GetSession returns the session by delegating to configured services.
func (d Deps) GetSession(r *http.Request) (*sessions.Session, error) {
	return d.srv.GetSession(r)
}

// EnsureCSRF ensures CSRF is initialized and available by delegating to configured services.
func (d Deps) EnsureCSRF(session *sessions.Session) string {
	return d.srv.EnsureCSRF(session)
}

// ValidateCSRF validates CSRF and returns an error on failure.
func (d Deps) ValidateCSRF(session *sessions.Session, token string) bool {
	return d.srv.ValidateCSRF(session, token)
}

// RenderTemplate renders a named template with the provided data.
func (d Deps) RenderTemplate(w io.Writer, name string, data interface{}) error {
	return d.srv.RenderTemplate(w, name, data)
}

// CurrentUser returns the authenticated user from the request.
func (d Deps) CurrentUser(r *http.Request) (domain.User, error) {
	return d.srv.CurrentUser(r)
}

// Admit reports whether the request may see guarded pages.
func (d Deps) Admit(r *http.Request) (bool, error) {
	return d.srv.Admit(r)
}

// AuditOutcome records outcome as an audit event.
func (d Deps) AuditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string) {
	d.srv.AuditOutcome(ctx, actorID, action, target, err, meta)
}

// AllowAuthAttempt applies the shared sign-in rate limit.
func (d Deps) AllowAuthAttempt(r *http.Request) (bool, time.Duration) {
	return d.srv.AllowAuthAttempt(r)
}

// ObserveAuth counts an authentication attempt.
func (d Deps) ObserveAuth(action, result string) {
	d.srv.Metrics().ObserveAuth(action, result)
}
