// Package auth implements the password gate in front of the chat UI and API.
//
// Requests from the local machine pass unchecked unless local auth is
// required. Everyone else needs a session obtained by posting the shared
// password to the login form.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "expertchat_session"

const defaultSessionTTL = 24 * time.Hour

// Options configures a Gate.
type Options struct {
	// Password is the shared login secret, compared by plain equality.
	Password string
	// SecretKey signs session cookies.
	SecretKey string
	// RequireAuthLocal disables the loopback bypass.
	RequireAuthLocal bool
	// LoginPath is where unauthenticated requests are redirected.
	LoginPath string
	// CookiePath scopes the session cookie; defaults to "/".
	CookiePath string
	SessionTTL time.Duration
	Logger     zerolog.Logger
	// Now is used for session expiry; tests override it.
	Now func() time.Time
}

// Gate guards handlers with the local bypass and session check.
type Gate struct {
	password    string
	key         []byte
	requireAuth bool
	loginPath   string
	cookiePath  string
	ttl         time.Duration
	log         zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time // id -> expiry
}

// New builds a Gate.
func New(opts Options) *Gate {
	g := &Gate{
		password:    opts.Password,
		key:         []byte(opts.SecretKey),
		requireAuth: opts.RequireAuthLocal,
		loginPath:   opts.LoginPath,
		cookiePath:  opts.CookiePath,
		ttl:         opts.SessionTTL,
		log:         opts.Logger,
		now:         opts.Now,
		sessions:    map[string]time.Time{},
	}
	if g.loginPath == "" {
		g.loginPath = "/login"
	}
	if g.cookiePath == "" {
		g.cookiePath = "/"
	}
	if g.ttl <= 0 {
		g.ttl = defaultSessionTTL
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

var localHosts = map[string]bool{
	"127.0.0.1": true,
	"localhost": true,
	"::1":       true,
	"0.0.0.0":   true,
}

// IsLocal reports whether remoteAddr (host or host:port) is the local machine.
func IsLocal(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	return localHosts[strings.Trim(host, "[]")]
}

// Require wraps next with the gate. Unauthenticated callers are redirected
// to the login page.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Allowed(r) {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, g.loginPath, http.StatusFound)
	})
}

// Allowed reports whether r passes the gate.
func (g *Gate) Allowed(r *http.Request) bool {
	if !g.requireAuth && IsLocal(r.RemoteAddr) {
		return true
	}
	return g.Authenticated(r)
}

// Authenticated reports whether r carries a valid, unexpired session cookie.
func (g *Gate) Authenticated(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	id, ok := g.verify(c.Value)
	if !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.sessions[id]
	if !ok {
		return false
	}
	if g.now().After(exp) {
		delete(g.sessions, id)
		return false
	}
	return true
}

// CheckPassword compares pw with the configured password.
func (g *Gate) CheckPassword(pw string) bool { return pw == g.password }

// Login starts a session and sets its cookie when pw is correct.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request, pw string) bool {
	if !g.CheckPassword(pw) {
		g.log.Warn().Str("remote", r.RemoteAddr).Msg("login rejected")
		return false
	}
	id := uuid.NewString()
	g.mu.Lock()
	g.gcLocked()
	g.sessions[id] = g.now().Add(g.ttl)
	g.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    g.sign(id),
		Path:     g.cookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	g.log.Info().Str("remote", r.RemoteAddr).Msg("login")
	return true
}

// Logout drops the caller's session and clears the cookie.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, ok := g.verify(c.Value); ok {
			g.mu.Lock()
			delete(g.sessions, id)
			g.mu.Unlock()
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     g.cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Sessions returns the number of live sessions.
func (g *Gate) Sessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gate) gcLocked() {
	now := g.now()
	for id, exp := range g.sessions {
		if now.After(exp) {
			delete(g.sessions, id)
		}
	}
}

func (g *Gate) mac(id string) []byte {
	h := hmac.New(sha256.New, g.key)
	h.Write([]byte(id))
	return h.Sum(nil)
}

func (g *Gate) sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(g.mac(id))
}

func (g *Gate) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	return id, hmac.Equal(got, g.mac(id))
}
