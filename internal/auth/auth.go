package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/joshuadwray/audition-scoring/internal/models"
)

const (
	CookieName    = "audition_token"
	DefaultExpiry = 24 * time.Hour
)

type ctxKey int

const ctxKeyIdentity ctxKey = iota

type grant struct {
	identity models.Identity
	expires  time.Time
}

// Tokens issues opaque bearer tokens and resolves them to identities.
// Tokens live in memory and do not survive a restart.
type Tokens struct {
	ttl    time.Duration
	grants map[string]grant
	mu     sync.RWMutex
}

// NewTokens creates a token store; ttl <= 0 uses DefaultExpiry
func NewTokens(ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultExpiry
	}
	return &Tokens{
		ttl:    ttl,
		grants: make(map[string]grant),
	}
}

// TTL returns how long an issued token stays valid
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue stores id under a fresh random token
func (t *Tokens) Issue(id models.Identity) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	t.grants[token] = grant{identity: id, expires: time.Now().Add(t.ttl)}
	t.mu.Unlock()
	return token, nil
}

// Revoke invalidates a token
func (t *Tokens) Revoke(token string) {
	t.mu.Lock()
	delete(t.grants, token)
	t.mu.Unlock()
}

// Resolve returns the identity behind a valid, unexpired token
func (t *Tokens) Resolve(token string) (models.Identity, bool) {
	t.mu.RLock()
	g, exists := t.grants[token]
	t.mu.RUnlock()

	if !exists {
		return models.Identity{}, false
	}

	if time.Now().After(g.expires) {
		t.Revoke(token)
		return models.Identity{}, false
	}

	return g.identity, true
}

// Prune drops every expired token and returns how many were removed
func (t *Tokens) Prune() int {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for token, g := range t.grants {
		if now.After(g.expires) {
			delete(t.grants, token)
			n++
		}
	}
	return n
}

// TokenFromRequest extracts a bearer token from the Authorization header,
// falling back to the session cookie
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// WithIdentity returns ctx carrying id
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFrom returns the identity attached by Authenticate
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(models.Identity)
	return id, ok
}

// Authenticate attaches the caller's identity to the request context when a
// valid token is present. Requests without one pass through anonymously.
func (t *Tokens) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := TokenFromRequest(r); token != "" {
			if id, ok := t.Resolve(token); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin middleware for admin API endpoints (returns 401)
func RequireAdmin(next http.Handler) http.Handler {
	return require(models.Identity.IsAdmin, next)
}

// RequireScorer middleware for endpoints that need a judge, or an admin
// acting as the session's admin-judge (returns 401)
func RequireScorer(next http.Handler) http.Handler {
	return require(models.Identity.CanScore, next)
}

// RequireIdentity middleware for endpoints open to any authenticated caller
func RequireIdentity(next http.Handler) http.Handler {
	return require(func(models.Identity) bool { return true }, next)
}

func require(allowed func(models.Identity) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := IdentityFrom(r.Context()); ok && allowed(id) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized"}`))
	})
}

// SetTokenCookie sets the token cookie on the response
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearTokenCookie removes the token cookie
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateToken creates a random session token
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
