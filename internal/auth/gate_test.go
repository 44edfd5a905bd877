package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newGate(opts Options) *Gate {
	if opts.Password == "" {
		opts.Password = "s3cret"
	}
	if opts.SecretKey == "" {
		opts.SecretKey = "key"
	}
	opts.Logger = zerolog.Nop()
	return New(opts)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestIsLocal(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"::1":            true,
		"localhost":      true,
		"0.0.0.0:1":      true,
		"127.0.0.1":      true,
		"192.168.1.5:80": false,
		"10.0.0.1":       false,
		"":               false,
	}
	for addr, want := range cases {
		if got := IsLocal(addr); got != want {
			t.Errorf("IsLocal(%q)=%v want %v", addr, got, want)
		}
	}
}

func TestRequire_LocalBypass(t *testing.T) {
	g := newGate(Options{})
	r := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	r.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	g.Require(okHandler).ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestRequire_RemoteRedirects(t *testing.T) {
	g := newGate(Options{LoginPath: "/p/login"})
	r := httptest.NewRequest(http.MethodGet, "/p/", nil)
	r.RemoteAddr = "192.168.1.20:40000"
	rec := httptest.NewRecorder()
	g.Require(okHandler).ServeHTTP(rec, r)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/p/login" {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequire_LocalAuthRequired(t *testing.T) {
	g := newGate(Options{RequireAuthLocal: true})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	g.Require(okHandler).ServeHTTP(rec, r)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
}

func loginCookie(t *testing.T, g *Gate, pw string) (*http.Cookie, bool) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	ok := g.Login(rec, r, pw)
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c, ok
		}
	}
	return nil, ok
}

func TestLoginLogout(t *testing.T) {
	g := newGate(Options{})
	if c, ok := loginCookie(t, g, "wrong"); ok || c != nil {
		t.Fatal("wrong password must not create a session")
	}
	c, ok := loginCookie(t, g, "s3cret")
	if !ok || c == nil {
		t.Fatal("expected session cookie")
	}
	if !c.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	r.AddCookie(c)
	rec := httptest.NewRecorder()
	g.Require(okHandler).ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected authenticated pass, got %d", rec.Code)
	}

	out := httptest.NewRecorder()
	g.Logout(out, r)
	if g.Sessions() != 0 {
		t.Fatalf("expected session dropped, have %d", g.Sessions())
	}
	if g.Authenticated(r) {
		t.Fatal("old cookie must not authenticate after logout")
	}
}

func TestAuthenticated_RejectsTamperedCookie(t *testing.T) {
	g := newGate(Options{})
	c, _ := loginCookie(t, g, "s3cret")
	id, _, _ := strings.Cut(c.Value, ".")

	other := newGate(Options{SecretKey: "different"})
	forged := other.sign(id)

	for _, v := range []string{forged, id, id + ".", "garbage", ""} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: CookieName, Value: v})
		if g.Authenticated(r) {
			t.Fatalf("cookie %q must not authenticate", v)
		}
	}
}

func TestAuthenticated_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newGate(Options{SessionTTL: time.Hour, Now: func() time.Time { return now }})
	c, _ := loginCookie(t, g, "s3cret")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if !g.Authenticated(r) {
		t.Fatal("expected fresh session to authenticate")
	}
	now = now.Add(2 * time.Hour)
	if g.Authenticated(r) {
		t.Fatal("expected expired session to be rejected")
	}
	if g.Sessions() != 0 {
		t.Fatal("expired session should be removed")
	}
}
