package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie carrying the signed session.
const SessionName = "dbsee_session"

const usernameKey = "username"

// Sessions issues and reads signed session cookies.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions creates a cookie session store signed with secret. It returns
// nil when secret is empty, which disables sessions.
func NewSessions(secret string, maxAge time.Duration) *Sessions {
	if secret == "" {
		return nil
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(int(maxAge / time.Second))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	return &Sessions{store: store}
}

// Principal returns the principal of the request's session cookie.
func (s *Sessions) Principal(r *http.Request) (*Principal, error) {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		// Tampered or expired cookies decode as errors.
		return nil, ErrUnauthenticated
	}
	user, ok := session.Values[usernameKey].(string)
	if !ok || user == "" {
		return nil, ErrUnauthenticated
	}
	return &Principal{Username: user}, nil
}

// Login writes a session cookie for p.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, p *Principal) error {
	// A stale cookie yields a fresh session alongside the error.
	session, _ := s.store.Get(r, SessionName)
	session.Values[usernameKey] = p.Username
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Logout expires the session cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionName)
	delete(session.Values, usernameKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
