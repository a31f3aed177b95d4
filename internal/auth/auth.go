// Package auth guards the API with a single admin credential. A login
// issues an HS256 JWT in the auth_session cookie; logout revokes its id
// until the token would have expired anyway.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pelotero/internal/cache"
	"pelotero/internal/log"
	"pelotero/internal/metrics"
)

const CookieName = "auth_session"

const issuer = "pelotero"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginDisabled is returned when no password hash is configured.
	ErrLoginDisabled = errors.New("login disabled")
	ErrNoSession     = errors.New("no session")
)

type Config struct {
	User         string
	PasswordHash string
	Secret       string
	TTL          time.Duration
	CookieSecure bool
}

type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator checks credentials and session cookies.
type Authenticator struct {
	cfg     Config
	revoked cache.Cache[struct{}]
	now     func() time.Time
}

// New builds an Authenticator. The revocation cache is registered with
// mgr so expired ids are swept; mgr may be nil in tests.
func New(cfg Config, mgr *cache.Manager) *Authenticator {
	revoked := cache.NewLRU[struct{}]("revoked_sessions", 10000)
	if mgr != nil {
		mgr.Register(revoked)
	}
	return &Authenticator{cfg: cfg, revoked: revoked, now: time.Now}
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Login verifies the credential and returns a signed session token.
func (a *Authenticator) Login(ctx context.Context, user, password string) (string, time.Time, error) {
	if a.cfg.PasswordHash == "" {
		metrics.LoginAttempts.WithLabelValues("disabled").Inc()
		return "", time.Time{}, ErrLoginDisabled
	}
	hashErr := bcrypt.CompareHashAndPassword([]byte(a.cfg.PasswordHash), []byte(password))
	if user != a.cfg.User || hashErr != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		slog.WarnContext(ctx, "Login rejected", log.FieldComponent, log.ComponentAuth, "user", user)
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.now()
	exp := now.Add(a.cfg.TTL)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	slog.InfoContext(ctx, "Admin logged in", log.FieldComponent, log.ComponentAuth, "user", user)
	return token, exp, nil
}

// Parse validates a session token and checks it has not been revoked.
func (a *Authenticator) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(a.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, errors.New("invalid token")
	}
	if _, revoked := a.revoked.Lookup(claims.ID); revoked {
		return nil, errors.New("session revoked")
	}
	return claims, nil
}

// IsAuthenticated reports whether the request carries a live session.
func (a *Authenticator) IsAuthenticated(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	_, err = a.Parse(c.Value)
	return err == nil
}

// Logout revokes the session in r, if any. An invalid cookie is not an error.
func (a *Authenticator) Logout(ctx context.Context, r *http.Request) error {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ErrNoSession
	}
	claims, err := a.Parse(c.Value)
	if err != nil {
		return nil
	}
	until := a.now().Add(a.cfg.TTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	a.revoked.Put(claims.ID, struct{}{}, until)
	slog.InfoContext(ctx, "Session revoked", log.FieldComponent, log.ComponentAuth, log.FieldID, claims.ID)
	return nil
}

// SessionCookie builds the cookie carrying token.
func (a *Authenticator) SessionCookie(token string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie in the browser.
func (a *Authenticator) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware rejects unauthenticated requests with a JSON 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.IsAuthenticated(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
