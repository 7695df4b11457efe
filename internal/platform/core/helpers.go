package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// Session value keys shared by the guard and the auth handlers.
const (
	SessionName        = "gate_session"
	SessionUserIDKey   = "user_id"
	SessionIDKey       = "session_id"
	SessionCSRFKey     = "csrf_token"
	SessionPendingTOTP = "pending_totp"
)

// WriteJSON marshals JSON responses and sets the content type.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// IsSafeRedirect ensures redirect targets stay on the same host.
func IsSafeRedirect(r *http.Request, target string) bool {
	if target == "" {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if u.IsAbs() {
		return u.Host == r.Host && (u.Scheme == "http" || u.Scheme == "https")
	}
	if u.Host != "" || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return false
	}
	return strings.HasPrefix(target, "/")
}

// SafeNext returns target when it is a same-host redirect, otherwise fallback.
func SafeNext(r *http.Request, target, fallback string) string {
	if IsSafeRedirect(r, target) {
		return target
	}
	return fallback
}

// RandomToken returns a hex-encoded random token (fallbacks to time-based string).
func RandomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// SubtleCompare uses constant-time comparison for security tokens.
func SubtleCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func SessionUserID(session *sessions.Session) (int, bool) {
	if session == nil {
		return 0, false
	}
	switch v := session.Values[SessionUserIDKey].(type) {
	case int:
		return v, v > 0
	case int64:
		return int(v), v > 0
	case float64:
		return int(v), v > 0
	default:
		return 0, false
	}
}

// StartSession marks session as signed in for userID and returns the new session id.
// The CSRF token and any pending TOTP enrolment are dropped so they are not carried across sign-in.
func StartSession(session *sessions.Session, userID int) string {
	sessionID := uuid.NewString()
	session.Values[SessionUserIDKey] = userID
	session.Values[SessionIDKey] = sessionID
	delete(session.Values, SessionCSRFKey)
	delete(session.Values, SessionPendingTOTP)
	return sessionID
}

// ClientIP returns the host of r.RemoteAddr. Forwarding headers are never read here;
// behind a trusted proxy the router rewrites RemoteAddr before handlers run.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if strings.TrimSpace(r.RemoteAddr) != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
