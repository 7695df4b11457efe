package passkeys

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/domain"
	"gatehouse/internal/platform/core"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/gorilla/sessions"
)

// Session keys holding in-flight ceremony state.
const (
	registerSessionKey = "webauthn_register"
	registerNameKey    = "webauthn_register_name"
	loginSessionKey    = "webauthn_login"
	loginUserKey       = "webauthn_login_user"
	loginNextKey       = "webauthn_login_next"
)

// CSRFHeader carries the session CSRF token on the JSON ceremony endpoints.
const CSRFHeader = "X-CSRF-Token"

const defaultName = "Passkey"

var errNoPasskey = errors.New("no passkey for account")

type Dependencies interface {
	Config() config.Config
	GetSession(r *http.Request) (*sessions.Session, error)
	ValidateCSRF(session *sessions.Session, token string) bool
	CurrentUser(r *http.Request) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	LoadPasskeyCredentials(ctx context.Context, userID int) ([]webauthn.Credential, error)
	InsertPasskey(ctx context.Context, userID int, name string, credential webauthn.Credential) error
	TouchPasskey(ctx context.Context, userID int, credential webauthn.Credential) error
	AllowAuthAttempt(r *http.Request) (bool, time.Duration)
	AuditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string)
	ObserveAuth(action, result string)
}

type Handler struct {
	deps Dependencies
}

func NewHandler(deps Dependencies) Handler {
	return Handler{deps: deps}
}

type passkeyUser struct {
	user        domain.User
	credentials []webauthn.Credential
}

func (u passkeyUser) WebAuthnID() []byte                         { return []byte(strconv.Itoa(u.user.ID)) }
func (u passkeyUser) WebAuthnName() string                       { return u.user.Username }
func (u passkeyUser) WebAuthnDisplayName() string                { return u.user.Username }
func (u passkeyUser) WebAuthnIcon() string                       { return "" }
func (u passkeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

func writeError(w http.ResponseWriter, status int, msg string) {
	core.WriteJSON(w, status, map[string]string{"error": msg})
}

// RegisterBegin starts enrolment of a new passkey for the signed-in user.
func (h Handler) RegisterBegin(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.GetSession(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	if !h.deps.ValidateCSRF(session, r.Header.Get(CSRFHeader)) {
		writeError(w, http.StatusBadRequest, "Invalid CSRF token")
		return
	}
	current, err := h.deps.CurrentUser(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Sign in first")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		name = defaultName
	}
	if len(name) > 64 {
		name = name[:64]
	}

	creds, err := h.deps.LoadPasskeyCredentials(r.Context(), current.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load passkeys")
		return
	}
	wa, err := h.relyingParty(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Passkeys unavailable")
		return
	}
	exclusions := make([]protocol.CredentialDescriptor, 0, len(creds))
	for _, cred := range creds {
		exclusions = append(exclusions, cred.Descriptor())
	}
	options, data, err := wa.BeginRegistration(
		passkeyUser{user: current, credentials: creds},
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationPreferred,
		}),
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
		webauthn.WithExclusions(exclusions),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to start passkey enrolment")
		return
	}
	if err := storeCeremony(session, registerSessionKey, data); err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	session.Values[registerNameKey] = name
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	core.WriteJSON(w, http.StatusOK, options)
}

// RegisterFinish verifies the authenticator response and stores the credential.
func (h Handler) RegisterFinish(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.GetSession(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	if !h.deps.ValidateCSRF(session, r.Header.Get(CSRFHeader)) {
		writeError(w, http.StatusBadRequest, "Invalid CSRF token")
		return
	}
	current, err := h.deps.CurrentUser(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "Sign in first")
		return
	}
	data, err := loadCeremony(session, registerSessionKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Passkey enrolment expired")
		return
	}
	name, _ := session.Values[registerNameKey].(string)
	if name == "" {
		name = defaultName
	}
	delete(session.Values, registerSessionKey)
	delete(session.Values, registerNameKey)

	creds, err := h.deps.LoadPasskeyCredentials(r.Context(), current.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load passkeys")
		return
	}
	wa, err := h.relyingParty(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Passkeys unavailable")
		return
	}
	credential, err := wa.FinishRegistration(passkeyUser{user: current, credentials: creds}, *data, r)
	if err != nil {
		h.deps.AuditOutcome(r.Context(), current.ID, "passkey.register", name, err, nil)
		_ = session.Save(r, w)
		writeError(w, http.StatusBadRequest, "Passkey enrolment failed")
		return
	}
	if err := h.deps.InsertPasskey(r.Context(), current.ID, name, *credential); err != nil {
		h.deps.AuditOutcome(r.Context(), current.ID, "passkey.register", name, err, nil)
		writeError(w, http.StatusInternalServerError, "Failed to save passkey")
		return
	}
	h.deps.AuditOutcome(r.Context(), current.ID, "passkey.register", name, nil, nil)
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	core.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "redirect": "/use"})
}

// LoginBegin issues an assertion challenge for the named account. It shares the sign-in rate limit.
func (h Handler) LoginBegin(w http.ResponseWriter, r *http.Request) {
	if allowed, wait := h.deps.AllowAuthAttempt(r); !allowed {
		retryAfter := int(wait.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		h.deps.ObserveAuth("passkey", "throttled")
		writeError(w, http.StatusTooManyRequests, "Too many attempts. Try again shortly.")
		return
	}
	session, err := h.deps.GetSession(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	if !h.deps.ValidateCSRF(session, r.Header.Get(CSRFHeader)) {
		writeError(w, http.StatusBadRequest, "Invalid CSRF token")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	user, creds, err := h.account(r.Context(), username)
	if err != nil {
		if errors.Is(err, errNoPasskey) {
			h.deps.ObserveAuth("passkey", "failure")
			writeError(w, http.StatusBadRequest, "No passkey is registered for this account")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load passkeys")
		return
	}
	wa, err := h.relyingParty(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Passkeys unavailable")
		return
	}
	options, data, err := wa.BeginLogin(passkeyUser{user: user, credentials: creds})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to start passkey sign-in")
		return
	}
	if err := storeCeremony(session, loginSessionKey, data); err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	session.Values[loginUserKey] = user.Username
	session.Values[loginNextKey] = core.SafeNext(r, r.PostFormValue("next"), "/use")
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	core.WriteJSON(w, http.StatusOK, options)
}

// LoginFinish verifies the assertion and signs the user in.
func (h Handler) LoginFinish(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.GetSession(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	if !h.deps.ValidateCSRF(session, r.Header.Get(CSRFHeader)) {
		writeError(w, http.StatusBadRequest, "Invalid CSRF token")
		return
	}
	data, err := loadCeremony(session, loginSessionKey)
	username, _ := session.Values[loginUserKey].(string)
	next, _ := session.Values[loginNextKey].(string)
	delete(session.Values, loginSessionKey)
	delete(session.Values, loginUserKey)
	delete(session.Values, loginNextKey)
	if err != nil || username == "" {
		_ = session.Save(r, w)
		writeError(w, http.StatusBadRequest, "Passkey sign-in expired")
		return
	}

	user, creds, err := h.account(r.Context(), username)
	if err != nil {
		_ = session.Save(r, w)
		writeError(w, http.StatusBadRequest, "Passkey sign-in failed")
		return
	}
	wa, err := h.relyingParty(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Passkeys unavailable")
		return
	}
	meta := map[string]string{"username": user.Username, "ip": core.ClientIP(r), "method": "passkey"}
	credential, err := wa.FinishLogin(passkeyUser{user: user, credentials: creds}, *data, r)
	if err != nil {
		h.deps.AuditOutcome(r.Context(), user.ID, "auth.login", "session", err, meta)
		h.deps.ObserveAuth("passkey", "failure")
		_ = session.Save(r, w)
		writeError(w, http.StatusBadRequest, "Passkey sign-in failed")
		return
	}
	if err := h.deps.TouchPasskey(r.Context(), user.ID, *credential); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update passkey")
		return
	}

	meta["session_id"] = core.StartSession(session, user.ID)
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "Session error")
		return
	}
	h.deps.AuditOutcome(r.Context(), user.ID, "auth.login", "session", nil, meta)
	h.deps.ObserveAuth("passkey", "success")
	if next == "" {
		next = "/use"
	}
	core.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "redirect": next})
}

// account loads a user and their credentials; unknown users and users without passkeys both yield errNoPasskey.
func (h Handler) account(ctx context.Context, username string) (domain.User, []webauthn.Credential, error) {
	if username == "" {
		return domain.User{}, nil, errNoPasskey
	}
	user, err := h.deps.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, nil, errNoPasskey
	}
	creds, err := h.deps.LoadPasskeyCredentials(ctx, user.ID)
	if err != nil {
		return domain.User{}, nil, err
	}
	if len(creds) == 0 {
		return domain.User{}, nil, errNoPasskey
	}
	return user, creds, nil
}

// relyingParty builds the WebAuthn config from GATE_BASE_URL, or from the request when unset.
func (h Handler) relyingParty(r *http.Request) (*webauthn.WebAuthn, error) {
	cfg := h.deps.Config()
	origin := strings.TrimRight(cfg.BaseURL, "/")
	if origin == "" {
		origin = requestOrigin(r, cfg.TrustProxy)
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return nil, errors.New("cannot derive relying party from " + origin)
	}
	return webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.Brand,
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{origin},
	})
}

func requestOrigin(r *http.Request, trustProxy bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if trustProxy {
		if proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto == "http" || proto == "https" {
			scheme = proto
		}
	}
	return scheme + "://" + r.Host
}

func storeCeremony(session *sessions.Session, key string, data *webauthn.SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	session.Values[key] = string(raw)
	return nil
}

func loadCeremony(session *sessions.Session, key string) (*webauthn.SessionData, error) {
	raw, _ := session.Values[key].(string)
	if raw == "" {
		return nil, errors.New("no ceremony in progress")
	}
	var data webauthn.SessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return &data, nil
}
