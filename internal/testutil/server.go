package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatehouse/internal/config"
	"gatehouse/internal/platform/core"
	platformserver "gatehouse/internal/platform/server"
	sqlitestore "gatehouse/internal/platform/storage/sqlite"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func TestConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:            "test",
		SecretKey:      []byte("test-secret"),
		DBPath:         ":memory:",
		Host:           "127.0.0.1",
		Port:           "0",
		CookieSameSite: http.SameSiteLaxMode,
		SessionMaxAge:  time.Hour,
		DisableCSRF:    true,
		MinPasswordLen: 8,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
		FooterMarkdown: "© [*Test Author*]",
		Brand:          "gatehouse",
	}
}

// OpenDB returns an initialized in-memory database closed at test cleanup.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := sqlitestore.InitDB(db); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return db
}

func NewServer(t *testing.T) *platformserver.Server {
	t.Helper()
	return NewServerWithConfig(t, TestConfig(t))
}

func NewServerWithConfig(t *testing.T, cfg config.Config) *platformserver.Server {
	t.Helper()
	return NewServerWithLogger(t, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func NewServerWithLogger(t *testing.T, cfg config.Config, logger *slog.Logger) *platformserver.Server {
	t.Helper()
	srv, err := platformserver.NewServer(cfg, OpenDB(t), logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

// CreateUser inserts a user with a bcrypt hash of password and returns its id.
func CreateUser(t *testing.T, srv *platformserver.Server, username, password string) int {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id, err := srv.Repos().Users.CreateUser(context.Background(), username, string(hash))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return int(id)
}

// SessionCookies returns cookies for a session whose values are set by mutate.
func SessionCookies(t *testing.T, srv *platformserver.Server, mutate func(values map[interface{}]interface{})) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := srv.GetSession(req)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	mutate(session.Values)
	rec := httptest.NewRecorder()
	if err := session.Save(req, rec); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return rec.Result().Cookies()
}

// SignedInRequest builds a request carrying a session for userID.
func SignedInRequest(t *testing.T, srv *platformserver.Server, method, target string, userID int) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for _, cookie := range SessionCookies(t, srv, func(values map[interface{}]interface{}) {
		values[core.SessionUserIDKey] = userID
	}) {
		req.AddCookie(cookie)
	}
	return req
}
