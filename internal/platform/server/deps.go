package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"gatehouse/internal/contracts/users"
	"gatehouse/internal/domain"
	"gatehouse/internal/platform/core"
	"github.com/gorilla/sessions"
)

// EnsureCSRF ensures CSRF is initialized and available.
func (s *Server) EnsureCSRF(session *sessions.Session) string {
	return s.ensureCSRF(session)
}

// RenderTemplate renders a named template with the provided data.
func (s *Server) RenderTemplate(w io.Writer, name string, data interface{}) error {
	return s.tmpl.ExecuteTemplate(w, name, data)
}

// GetSession returns the request's session. A cookie that fails to decode yields a fresh session.
func (s *Server) GetSession(r *http.Request) (*sessions.Session, error) {
	session, err := s.store.Get(r, core.SessionName)
	if session == nil {
		return nil, err
	}
	return session, nil
}

// ValidateCSRF reports whether token matches the session's CSRF token.
func (s *Server) ValidateCSRF(session *sessions.Session, token string) bool {
	return s.validateCSRF(session, token)
}

// CurrentUser returns the authenticated user from the session.
func (s *Server) CurrentUser(r *http.Request) (domain.User, error) {
	session, _ := s.GetSession(r)
	id, ok := core.SessionUserID(session)
	if !ok {
		return domain.User{}, ErrNotLoggedIn
	}
	return s.repos.Users.GetUserByID(r.Context(), id)
}

// Admit is the admission predicate for guarded pages: the session must name an existing user.
func (s *Server) Admit(r *http.Request) (bool, error) {
	_, err := s.CurrentUser(r)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, users.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// AllowAuthAttempt counts one sign-in attempt for the client and, when over the limit,
// returns how long until the window resets.
func (s *Server) AllowAuthAttempt(r *http.Request) (bool, time.Duration) {
	now := time.Now()
	allowed, reset := s.limiter.Allow(core.ClientIP(r), now)
	if allowed {
		return true, 0
	}
	return false, reset.Sub(now)
}

// AuditOutcome records outcome as an audit event.
func (s *Server) AuditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string) {
	s.auditOutcome(ctx, actorID, action, target, err, meta)
}
