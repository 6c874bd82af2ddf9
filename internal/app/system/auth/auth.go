// Package auth provides cookie-session management and route guards for the
// portal. Sessions carry the signed-in account's id, name, email, and role;
// handlers read the user from the request context after LoadSessionUser runs.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session values are stored as flat strings so the cookie codec needs no
// gob registration.
const (
	keyUserID    = "user_id"
	keyUserName  = "user_name"
	keyUserEmail = "user_email"
	keyUserRole  = "user_role"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// SessionUser is the authenticated principal stored in the session cookie.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// CurrentUser returns the signed-in user from the request context, if any.
// LoadSessionUser must be installed on the route chain for this to work.
func CurrentUser(r *http.Request) (SessionUser, bool) {
	u, ok := r.Context().Value(userContextKey).(SessionUser)
	return u, ok
}

// SessionManager wraps a gorilla cookie store with the portal's session
// conventions.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// NewSessionManager builds the session store. secure controls the cookie's
// Secure flag and should be true everywhere except local development.
func NewSessionManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) *SessionManager {
	if len(sessionKey) < 32 {
		logger.Warn("session key is shorter than 32 bytes; cookies are weakly authenticated")
	}
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name, logger: logger}
}

// GetSession returns the named session, creating it if absent. A corrupt
// cookie is treated as a fresh session rather than an error.
func (m *SessionManager) GetSession(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, m.name)
	if err != nil && m.logger != nil {
		m.logger.Debug("session decode failed; starting fresh", zap.Error(err))
	}
	return s
}

// SignIn stores the user in the session and writes the cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	s := m.GetSession(r)
	s.Values[keyUserID] = u.ID
	s.Values[keyUserName] = u.Name
	s.Values[keyUserEmail] = u.Email
	s.Values[keyUserRole] = u.Role
	return s.Save(r, w)
}

// SignOut clears the session and expires the cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	s := m.GetSession(r)
	s.Values = map[interface{}]interface{}{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// LoadSessionUser reads the session cookie and, when a user is present,
// attaches it to the request context. It never rejects a request.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.GetSession(r)
		id := getString(s.Values, keyUserID)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		u := SessionUser{
			ID:    id,
			Name:  getString(s.Values, keyUserName),
			Email: getString(s.Values, keyUserEmail),
			Role:  getString(s.Values, keyUserRole),
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

// RequireSignedIn rejects unauthenticated requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only the named roles through. Unauthenticated requests
// get 401; authenticated requests with the wrong role get 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[strings.ToLower(u.Role)]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestUser returns a middleware that injects a fixed user into every
// request. Handler tests use this instead of minting real session cookies.
func WithTestUser(u SessionUser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
		})
	}
}

func withUser(ctx context.Context, u SessionUser) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func getString(values map[interface{}]interface{}, key string) string {
	s, _ := values[key].(string)
	return s
}
