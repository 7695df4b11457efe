package auth

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/contracts/users"
	"gatehouse/internal/domain"
	"gatehouse/internal/features/shell"
	"gatehouse/internal/platform/core"

	"github.com/gorilla/sessions"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// DefaultNext is where a successful sign-in lands when no safe next target was given.
const DefaultNext = "/use"

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errInvalidTOTP        = errors.New("invalid one-time code")
)

type Dependencies interface {
	Config() config.Config
	GetSession(r *http.Request) (*sessions.Session, error)
	EnsureCSRF(session *sessions.Session) string
	ValidateCSRF(session *sessions.Session, token string) bool
	GetUserByID(ctx context.Context, id int) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	CountUsers(ctx context.Context) (int, error)
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

type pageData struct {
	Error          string
	Next           string
	CSRFToken      string
	Username       string
	SignedInAs     string
	MinPasswordLen int
	FirstAccount   bool
}

// Page is the entry page mounted at the base path.
func (h Handler) Page() shell.Page {
	return shell.PageFunc(h.Entry)
}

// Entry renders the sign-in and sign-up forms and handles their submissions.
func (h Handler) Entry(w http.ResponseWriter, r *http.Request) (shell.View, error) {
	session, err := h.deps.GetSession(r)
	if err != nil {
		return shell.View{}, err
	}
	data := pageData{
		Next:           core.SafeNext(r, r.URL.Query().Get("next"), DefaultNext),
		CSRFToken:      h.deps.EnsureCSRF(session),
		MinPasswordLen: h.deps.Config().MinPasswordLen,
	}
	if id, ok := core.SessionUserID(session); ok {
		user, err := h.deps.GetUserByID(r.Context(), id)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			return shell.View{}, err
		}
		data.SignedInAs = user.Username
	}
	count, err := h.deps.CountUsers(r.Context())
	if err != nil {
		return shell.View{}, err
	}
	data.FirstAccount = count == 0

	status := http.StatusOK
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodPost:
		view, handled, err := h.submit(w, r, session, &data)
		if err != nil || handled {
			return view, err
		}
		status = view.Status
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		status = http.StatusMethodNotAllowed
	}

	if err := session.Save(r, w); err != nil {
		return shell.View{}, err
	}
	return shell.View{Title: "Sign in", Template: "auth", Data: data, Status: status}, nil
}

// submit handles a form post. handled is true when view is final (a redirect).
func (h Handler) submit(w http.ResponseWriter, r *http.Request, session *sessions.Session, data *pageData) (shell.View, bool, error) {
	if allowed, wait := h.deps.AllowAuthAttempt(r); !allowed {
		retryAfter := int(wait.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		data.Error = "Too many attempts. Try again shortly."
		h.deps.ObserveAuth("any", "throttled")
		return shell.View{Status: http.StatusTooManyRequests}, false, nil
	}
	if err := r.ParseForm(); err != nil {
		data.Error = "Bad request"
		return shell.View{Status: http.StatusBadRequest}, false, nil
	}
	data.Next = core.SafeNext(r, r.PostFormValue("next"), DefaultNext)
	if !h.deps.ValidateCSRF(session, r.PostFormValue("csrf_token")) {
		data.Error = "Invalid CSRF token"
		return shell.View{Status: http.StatusBadRequest}, false, nil
	}

	switch r.PostFormValue("action") {
	case "login":
		return h.login(w, r, session, data)
	case "register":
		return h.register(w, r, session, data)
	default:
		data.Error = "Unknown action"
		return shell.View{Status: http.StatusBadRequest}, false, nil
	}
}

func (h Handler) login(w http.ResponseWriter, r *http.Request, session *sessions.Session, data *pageData) (shell.View, bool, error) {
	ctx := r.Context()
	username := strings.TrimSpace(r.PostFormValue("username"))
	data.Username = username
	meta := map[string]string{"username": username, "ip": core.ClientIP(r)}

	user, err := h.deps.GetUserByUsername(ctx, username)
	if errors.Is(err, users.ErrNotFound) {
		return h.reject(ctx, 0, "login", errInvalidCredentials, "Invalid username or password", meta, data)
	}
	if err != nil {
		return shell.View{}, false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(r.PostFormValue("password"))); err != nil {
		return h.reject(ctx, user.ID, "login", errInvalidCredentials, "Invalid username or password", meta, data)
	}
	if user.HasTOTP() && !totp.Validate(strings.TrimSpace(r.PostFormValue("totp")), user.TOTPSecret) {
		return h.reject(ctx, user.ID, "login", errInvalidTOTP, "Invalid one-time code", meta, data)
	}
	return h.signIn(w, r, session, user.ID, "login", data.Next, meta)
}

func (h Handler) register(w http.ResponseWriter, r *http.Request, session *sessions.Session, data *pageData) (shell.View, bool, error) {
	ctx := r.Context()
	username := strings.ToLower(strings.TrimSpace(r.PostFormValue("username")))
	password := r.PostFormValue("password")
	meta := map[string]string{"username": username, "ip": core.ClientIP(r)}

	if msg := validateRegistration(username, password, r.PostFormValue("confirm"), h.deps.Config().MinPasswordLen); msg != "" {
		data.Error = msg
		h.deps.ObserveAuth("register", "invalid")
		return shell.View{Status: http.StatusOK}, false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return shell.View{}, false, err
	}
	id, err := h.deps.CreateUser(ctx, username, string(hash))
	if errors.Is(err, users.ErrUsernameTaken) {
		return h.reject(ctx, 0, "register", err, "Username is already taken", meta, data)
	}
	if err != nil {
		return shell.View{}, false, err
	}
	return h.signIn(w, r, session, int(id), "register", data.Next, meta)
}

// validateRegistration returns a user-facing message, or "" when the input is acceptable.
func validateRegistration(username, password, confirm string, minLen int) string {
	switch {
	case !usernamePattern.MatchString(username):
		return "Username must be 3-32 characters of letters, numbers, dot, underscore or hyphen"
	case len(password) < minLen:
		return "Password must be at least " + strconv.Itoa(minLen) + " characters"
	case password != confirm:
		return "Passwords do not match"
	}
	return ""
}

func (h Handler) reject(ctx context.Context, actorID int, action string, cause error, msg string, meta map[string]string, data *pageData) (shell.View, bool, error) {
	data.Error = msg
	h.deps.AuditOutcome(ctx, actorID, "auth."+action, "session", cause, meta)
	h.deps.ObserveAuth(action, "failure")
	return shell.View{Status: http.StatusOK}, false, nil
}

func (h Handler) signIn(w http.ResponseWriter, r *http.Request, session *sessions.Session, userID int, action, next string, meta map[string]string) (shell.View, bool, error) {
	sessionID := core.StartSession(session, userID)
	if err := session.Save(r, w); err != nil {
		return shell.View{}, false, err
	}
	meta["session_id"] = sessionID
	h.deps.AuditOutcome(r.Context(), userID, "auth."+action, "session", nil, meta)
	h.deps.ObserveAuth(action, "success")
	return shell.Redirect(next), true, nil
}

// Logout clears the session and redirects to the entry page.
func (h Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.GetSession(r)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if !h.deps.ValidateCSRF(session, r.PostFormValue("csrf_token")) {
		http.Error(w, "Invalid CSRF token", http.StatusBadRequest)
		return
	}
	userID, _ := core.SessionUserID(session)
	sessionID, _ := session.Values[core.SessionIDKey].(string)

	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	if userID > 0 {
		h.deps.AuditOutcome(r.Context(), userID, "auth.logout", "session", nil, map[string]string{"session_id": sessionID})
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
