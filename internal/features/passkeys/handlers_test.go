package passkeys_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gatehouse/internal/features/passkeys"
	"gatehouse/internal/platform/core"
	platformserver "gatehouse/internal/platform/server"
	"gatehouse/internal/platform/wiring"
	"gatehouse/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-webauthn/webauthn/webauthn"
)

type ceremonyOptions struct {
	PublicKey struct {
		Challenge string `json:"challenge"`
		RP        struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"rp"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		AllowCredentials []struct {
			ID string `json:"id"`
		} `json:"allowCredentials"`
	} `json:"publicKey"`
}

func request(target string, body, contentType string, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func formRequest(target string, form url.Values, cookies []*http.Cookie) *http.Request {
	return request(target, form.Encode(), "application/x-www-form-urlencoded", cookies)
}

func signedInCookies(t *testing.T, srv *platformserver.Server, id int) []*http.Cookie {
	t.Helper()
	return testutil.SessionCookies(t, srv, func(values map[interface{}]interface{}) {
		values[core.SessionUserIDKey] = id
	})
}

func decodeOptions(t *testing.T, rec *httptest.ResponseRecorder) ceremonyOptions {
	t.Helper()
	var out ceremonyOptions
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode options: %v (%s)", err, rec.Body.String())
	}
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return out["error"]
}

func addPasskey(t *testing.T, srv *platformserver.Server, userID int, credID string) {
	t.Helper()
	cred := webauthn.Credential{ID: []byte(credID), PublicKey: []byte("public-key"), AttestationType: "none"}
	if err := srv.Repos().Passkeys.InsertPasskey(context.Background(), userID, "Laptop", cred); err != nil {
		t.Fatalf("insert passkey: %v", err)
	}
}

func TestRegisterBeginRequiresUser(t *testing.T) {
	srv := testutil.NewServer(t)
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	rec := httptest.NewRecorder()
	h.RegisterBegin(rec, formRequest("/passkeys/register/begin", url.Values{"name": {"Laptop"}}, nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRegisterBeginStoresCeremony(t *testing.T) {
	srv := testutil.NewServer(t)
	id := testutil.CreateUser(t, srv, "alice", "password123")
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	rec := httptest.NewRecorder()
	h.RegisterBegin(rec, formRequest("/passkeys/register/begin", url.Values{"name": {"Laptop"}}, signedInCookies(t, srv, id)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	opts := decodeOptions(t, rec)
	if opts.PublicKey.Challenge == "" {
		t.Fatalf("expected a challenge")
	}
	if opts.PublicKey.RP.ID != "example.com" || opts.PublicKey.RP.Name != "gatehouse" {
		t.Fatalf("unexpected relying party %+v", opts.PublicKey.RP)
	}
	if opts.PublicKey.User.Name != "alice" {
		t.Fatalf("unexpected user %q", opts.PublicKey.User.Name)
	}

	// A malformed attestation against a live ceremony fails verification rather than expiry.
	finish := httptest.NewRecorder()
	h.RegisterFinish(finish, request("/passkeys/register/finish", "{}", "application/json", rec.Result().Cookies()))
	if finish.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", finish.Code)
	}
	if msg := errorMessage(t, finish); msg != "Passkey enrolment failed" {
		t.Fatalf("unexpected error %q", msg)
	}
	list, err := srv.Repos().Passkeys.ListPasskeys(context.Background(), id)
	if err != nil {
		t.Fatalf("list passkeys: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no stored passkeys, got %d", len(list))
	}
}

func TestRegisterFinishWithoutCeremony(t *testing.T) {
	srv := testutil.NewServer(t)
	id := testutil.CreateUser(t, srv, "alice", "password123")
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	rec := httptest.NewRecorder()
	h.RegisterFinish(rec, request("/passkeys/register/finish", "{}", "application/json", signedInCookies(t, srv, id)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Passkey enrolment expired" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestRelyingPartyFollowsBaseURL(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.BaseURL = "https://auth.example.org/"
	srv := testutil.NewServerWithConfig(t, cfg)
	id := testutil.CreateUser(t, srv, "alice", "password123")
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	rec := httptest.NewRecorder()
	h.RegisterBegin(rec, formRequest("/passkeys/register/begin", url.Values{}, signedInCookies(t, srv, id)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rp := decodeOptions(t, rec).PublicKey.RP.ID; rp != "auth.example.org" {
		t.Fatalf("expected relying party from base URL, got %q", rp)
	}
}

func TestLoginBeginWithoutPasskey(t *testing.T) {
	srv := testutil.NewServer(t)
	testutil.CreateUser(t, srv, "alice", "password123")
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	for _, username := range []string{"alice", "nobody"} {
		rec := httptest.NewRecorder()
		h.LoginBegin(rec, formRequest("/passkeys/login/begin", url.Values{"username": {username}}, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", username, rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "No passkey is registered for this account" {
			t.Fatalf("%s: unexpected error %q", username, msg)
		}
	}
}

func TestLoginBeginAllowsStoredCredentials(t *testing.T) {
	srv := testutil.NewServer(t)
	id := testutil.CreateUser(t, srv, "alice", "password123")
	addPasskey(t, srv, id, "cred-1")
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	rec := httptest.NewRecorder()
	h.LoginBegin(rec, formRequest("/passkeys/login/begin", url.Values{"username": {"Alice"}, "next": {"/use?tab=keys"}}, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	allowed := decodeOptions(t, rec).PublicKey.AllowCredentials
	if len(allowed) != 1 || allowed[0].ID != base64.RawURLEncoding.EncodeToString([]byte("cred-1")) {
		t.Fatalf("unexpected allowed credentials %+v", allowed)
	}

	finish := httptest.NewRecorder()
	h.LoginFinish(finish, request("/passkeys/login/finish", "{}", "application/json", rec.Result().Cookies()))
	if finish.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", finish.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/use", nil)
	for _, c := range finish.Result().Cookies() {
		req.AddCookie(c)
	}
	if _, err := srv.CurrentUser(req); err == nil {
		t.Fatalf("expected failed assertion to leave the session signed out")
	}
}

func TestLoginFinishWithoutCeremony(t *testing.T) {
	srv := testutil.NewServer(t)
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	rec := httptest.NewRecorder()
	h.LoginFinish(rec, request("/passkeys/login/finish", "{}", "application/json", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Passkey sign-in expired" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestLoginBeginSharesSignInLimit(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.AuthRateLimit = 1
	srv := testutil.NewServerWithConfig(t, cfg)
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	var codes []int
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.LoginBegin(rec, formRequest("/passkeys/login/begin", url.Values{"username": {"nobody"}}, nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Fatalf("expected Retry-After on throttled response")
		}
	}
	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestCeremoniesRequireCSRFHeader(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.DisableCSRF = false
	srv := testutil.NewServerWithConfig(t, cfg)
	id := testutil.CreateUser(t, srv, "alice", "password123")
	h := passkeys.NewHandler(wiring.NewDeps(srv))

	rec := httptest.NewRecorder()
	h.RegisterBegin(rec, formRequest("/passkeys/register/begin", url.Values{"csrf_token": {"forged"}}, signedInCookies(t, srv, id)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Invalid CSRF token" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestRegisterMountsCeremonies(t *testing.T) {
	srv := testutil.NewServer(t)
	r := chi.NewRouter()
	passkeys.Register(r, srv, passkeys.NewHandler(wiring.NewDeps(srv)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, formRequest("/passkeys/login/begin", url.Values{"username": {"nobody"}}, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected handler response, got %d", rec.Code)
	}
	if !srv.IsReserved("/passkeys/login/finish") {
		t.Fatalf("expected passkeys segment to be reserved")
	}
}
