// Package admin serves the staff console: login, registration review,
// campaigns and bot settings, all as JSON under /admin.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ezyassist/internal/platform/middleware"
	"ezyassist/internal/sentinel"
	dErrors "ezyassist/pkg/domain-errors"
	"ezyassist/pkg/platform/httputil"
	"ezyassist/pkg/secrets"
)

// CookieName carries the admin session id.
const CookieName = "admin_session"

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")

// Authenticator checks the single configured admin account and manages
// its sessions.
type Authenticator struct {
	username     string
	passwordHash string
	sessions     SessionStore
	ttl          time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

type AuthOption func(*Authenticator)

func WithSessionTTL(d time.Duration) AuthOption {
	return func(a *Authenticator) {
		if d > 0 {
			a.ttl = d
		}
	}
}

func WithAuthClock(now func() time.Time) AuthOption {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

func WithAuthLogger(logger *slog.Logger) AuthOption {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAuthenticator(username, passwordHash string, sessions SessionStore, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		username:     username,
		passwordHash: passwordHash,
		sessions:     sessions,
		ttl:          DefaultSessionTTL,
		now:          time.Now,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login starts a session for valid credentials. Unknown user and wrong
// password produce the same error.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	if a.username == "" || a.passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "admin login is not configured")
	}
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.username)) == 1
	if err := secrets.CheckPassword(password, a.passwordHash); err != nil || !userOK {
		if err != nil && !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, err
		}
		a.logger.WarnContext(ctx, "admin login failed", "username", username)
		return nil, errInvalidCredentials
	}

	id, err := secrets.NewToken()
	if err != nil {
		return nil, err
	}
	now := a.now()
	s := &Session{ID: id, Username: a.username, CreatedAt: now, ExpiresAt: now.Add(a.ttl)}
	if err := a.sessions.Create(ctx, s); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	a.logger.InfoContext(ctx, "admin logged in", "username", s.Username)
	return s, nil
}

func (a *Authenticator) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	return nil
}

// Authenticate resolves a session id to its session.
func (a *Authenticator) Authenticate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "login required")
	}
	s, err := a.sessions.Find(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session expired, please log in again")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read session")
	}
	if !a.now().Before(s.ExpiresAt) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session expired, please log in again")
	}
	return s, nil
}

// RequireSession rejects requests without a live admin session and puts the
// admin username on the context for audit entries.
func (a *Authenticator) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var sessionID string
		if c, err := r.Cookie(CookieName); err == nil {
			sessionID = c.Value
		}
		s, err := a.Authenticate(ctx, sessionID)
		if err != nil {
			a.logger.InfoContext(ctx, "admin request rejected",
				"path", r.URL.Path,
				"request_id", middleware.GetRequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithActor(ctx, s.Username)))
	})
}
