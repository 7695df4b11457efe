package use

import (
	"context"
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"gatehouse/internal/config"
	"gatehouse/internal/contracts/passkeys"
	"gatehouse/internal/domain"
	"gatehouse/internal/features/shell"
	"gatehouse/internal/platform/core"

	"github.com/gorilla/sessions"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

// ActivityLimit is how many audit entries the page lists.
const ActivityLimit = 10

const (
	flashMessage = "use_message"
	flashError   = "use_error"
)

var errInvalidCode = errors.New("invalid one-time code")

type Dependencies interface {
	Config() config.Config
	GetSession(r *http.Request) (*sessions.Session, error)
	EnsureCSRF(session *sessions.Session) string
	ValidateCSRF(session *sessions.Session, token string) bool
	CurrentUser(r *http.Request) (domain.User, error)
	UpdateUserTOTP(ctx context.Context, userID int, secret string) error
	ListAuditLogsForActor(ctx context.Context, actorID, limit int) ([]domain.AuditLog, error)
	ListPasskeys(ctx context.Context, userID int) ([]domain.Passkey, error)
	DeletePasskey(ctx context.Context, userID, id int) error
	AuditOutcome(ctx context.Context, actorID int, action, target string, err error, meta map[string]string)
}

type Handler struct {
	deps Dependencies
}

func NewHandler(deps Dependencies) Handler {
	return Handler{deps: deps}
}

// Enrollment is a pending TOTP setup awaiting confirmation.
type Enrollment struct {
	Secret string
	QRCode template.URL
}

type pageData struct {
	User       domain.User
	CSRFToken  string
	Message    string
	Error      string
	Enrollment *Enrollment
	Passkeys   []domain.Passkey
	Activity   []domain.AuditLog
}

func (h Handler) Page() shell.Page {
	return shell.PageFunc(h.Use)
}

// Use renders the account page for the signed-in user and applies its form actions.
func (h Handler) Use(w http.ResponseWriter, r *http.Request) (shell.View, error) {
	user, err := h.deps.CurrentUser(r)
	if err != nil {
		return shell.View{}, err
	}
	session, err := h.deps.GetSession(r)
	if err != nil {
		return shell.View{}, err
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodPost:
		return h.submit(w, r, session, user)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		return shell.View{Title: "Use", Status: http.StatusMethodNotAllowed}, nil
	}

	data := pageData{
		User:      user,
		CSRFToken: h.deps.EnsureCSRF(session),
		Message:   popFlash(session, flashMessage),
		Error:     popFlash(session, flashError),
	}
	if !user.HasTOTP() {
		if enrollment, ok, err := pendingEnrollment(session); err != nil {
			return shell.View{}, err
		} else if ok {
			data.Enrollment = enrollment
		}
	}
	data.Passkeys, err = h.deps.ListPasskeys(r.Context(), user.ID)
	if err != nil {
		return shell.View{}, err
	}
	data.Activity, err = h.deps.ListAuditLogsForActor(r.Context(), user.ID, ActivityLimit)
	if err != nil {
		return shell.View{}, err
	}
	if err := session.Save(r, w); err != nil {
		return shell.View{}, err
	}
	return shell.View{Title: "Use", Template: "use", Data: data}, nil
}

func (h Handler) submit(w http.ResponseWriter, r *http.Request, session *sessions.Session, user domain.User) (shell.View, error) {
	if err := r.ParseForm(); err != nil {
		return shell.View{Title: "Use", Status: http.StatusBadRequest}, nil
	}
	if !h.deps.ValidateCSRF(session, r.PostFormValue("csrf_token")) {
		session.AddFlash("Invalid CSRF token", flashError)
		return h.finish(w, r, session)
	}

	code := strings.TrimSpace(r.PostFormValue("code"))
	var err error
	switch r.PostFormValue("action") {
	case "totp_begin":
		err = h.beginTOTP(r.Context(), session, user)
	case "totp_confirm":
		err = h.confirmTOTP(r.Context(), session, user, code)
	case "totp_disable":
		err = h.disableTOTP(r.Context(), user, code)
	case "passkey_delete":
		err = h.deletePasskey(r.Context(), session, user, r.PostFormValue("id"))
	case "passkey_register":
		err = userError("Passkey enrolment needs JavaScript enabled")
	default:
		session.AddFlash("Unknown action", flashError)
		return h.finish(w, r, session)
	}
	var msg userError
	switch {
	case errors.As(err, &msg):
		session.AddFlash(string(msg), flashError)
	case err != nil:
		return shell.View{}, err
	}
	return h.finish(w, r, session)
}

func (h Handler) finish(w http.ResponseWriter, r *http.Request, session *sessions.Session) (shell.View, error) {
	if err := session.Save(r, w); err != nil {
		return shell.View{}, err
	}
	return shell.View{Redirect: "/use", Status: http.StatusSeeOther}, nil
}

// userError is shown to the user as a flash instead of failing the request.
type userError string

func (e userError) Error() string { return string(e) }

func (h Handler) beginTOTP(ctx context.Context, session *sessions.Session, user domain.User) error {
	if user.HasTOTP() {
		return userError("Two-factor authentication is already enabled")
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      h.deps.Config().Brand,
		AccountName: user.Username,
	})
	if err != nil {
		return err
	}
	session.Values[core.SessionPendingTOTP] = key.String()
	h.deps.AuditOutcome(ctx, user.ID, "totp.begin", user.Username, nil, nil)
	return nil
}

func (h Handler) confirmTOTP(ctx context.Context, session *sessions.Session, user domain.User, code string) error {
	raw, _ := session.Values[core.SessionPendingTOTP].(string)
	if raw == "" {
		return userError("No two-factor setup in progress")
	}
	key, err := otp.NewKeyFromURL(raw)
	if err != nil {
		delete(session.Values, core.SessionPendingTOTP)
		return userError("Two-factor setup expired, start again")
	}
	if !totp.Validate(code, key.Secret()) {
		h.deps.AuditOutcome(ctx, user.ID, "totp.enable", user.Username, errInvalidCode, nil)
		return userError("Invalid code")
	}
	if err := h.deps.UpdateUserTOTP(ctx, user.ID, key.Secret()); err != nil {
		return err
	}
	delete(session.Values, core.SessionPendingTOTP)
	h.deps.AuditOutcome(ctx, user.ID, "totp.enable", user.Username, nil, nil)
	session.AddFlash("Two-factor authentication enabled", flashMessage)
	return nil
}

func (h Handler) disableTOTP(ctx context.Context, user domain.User, code string) error {
	if !user.HasTOTP() {
		return userError("Two-factor authentication is not enabled")
	}
	if !totp.Validate(code, user.TOTPSecret) {
		h.deps.AuditOutcome(ctx, user.ID, "totp.disable", user.Username, errInvalidCode, nil)
		return userError("Invalid code")
	}
	if err := h.deps.UpdateUserTOTP(ctx, user.ID, ""); err != nil {
		return err
	}
	h.deps.AuditOutcome(ctx, user.ID, "totp.disable", user.Username, nil, nil)
	return nil
}

func (h Handler) deletePasskey(ctx context.Context, session *sessions.Session, user domain.User, rawID string) error {
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		return userError("Unknown passkey")
	}
	err = h.deps.DeletePasskey(ctx, user.ID, id)
	h.deps.AuditOutcome(ctx, user.ID, "passkey.delete", rawID, err, nil)
	if errors.Is(err, passkeys.ErrNotFound) {
		return userError("Unknown passkey")
	}
	if err != nil {
		return err
	}
	session.AddFlash("Passkey removed", flashMessage)
	return nil
}

func pendingEnrollment(session *sessions.Session) (*Enrollment, bool, error) {
	raw, _ := session.Values[core.SessionPendingTOTP].(string)
	if raw == "" {
		return nil, false, nil
	}
	key, err := otp.NewKeyFromURL(raw)
	if err != nil {
		delete(session.Values, core.SessionPendingTOTP)
		return nil, false, nil
	}
	png, err := qrcode.Encode(key.String(), qrcode.Medium, 256)
	if err != nil {
		return nil, false, err
	}
	return &Enrollment{
		Secret: key.Secret(),
		QRCode: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	}, true, nil
}

func popFlash(session *sessions.Session, key string) string {
	for _, f := range session.Flashes(key) {
		if s, ok := f.(string); ok {
			return s
		}
	}
	return ""
}
