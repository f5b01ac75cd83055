// Package auth is the authentication boundary in front of the engine.
//
// A request is authenticated by a bearer token, checked by a Verifier, or by
// a signed session cookie obtained earlier by exchanging such a token. The
// engine never sees credentials; handlers only see the Principal.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when no valid credential is presented.
var ErrUnauthenticated = errors.New("not authenticated")

// Principal is the authenticated caller.
type Principal struct {
	Username string `json:"username"`
}

// Verifier checks a bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// StaticVerifier accepts a fixed set of tokens.
type StaticVerifier struct {
	tokens map[string]string
}

// NewStaticVerifier creates a verifier from a token to username map.
func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	copied := make(map[string]string, len(tokens))
	for token, user := range tokens {
		copied[token] = user
	}
	return &StaticVerifier{tokens: copied}
}

// Verify returns the principal owning token.
func (v *StaticVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	var user string
	for known, u := range v.tokens {
		// Constant time over the whole set.
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			user = u
		}
	}
	if user == "" {
		return nil, ErrUnauthenticated
	}
	return &Principal{Username: user}, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// value. The scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticator resolves the principal of an HTTP request.
type Authenticator struct {
	verifier Verifier
	sessions *Sessions
}

// NewAuthenticator combines a verifier with an optional session store.
func NewAuthenticator(v Verifier, s *Sessions) *Authenticator {
	return &Authenticator{verifier: v, sessions: s}
}

// Sessions returns the session store, or nil when sessions are disabled.
func (a *Authenticator) Sessions() *Sessions {
	return a.sessions
}

// Verify checks a raw bearer token.
func (a *Authenticator) Verify(ctx context.Context, token string) (*Principal, error) {
	return a.verifier.Verify(ctx, token)
}

// Authenticate checks, in order, the Authorization header, the
// "authorization" query parameter used by EventSource clients, and the
// session cookie.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := BearerToken(h)
		if !ok {
			return nil, ErrUnauthenticated
		}
		return a.verifier.Verify(r.Context(), token)
	}
	if q := r.URL.Query().Get("authorization"); q != "" {
		token, ok := BearerToken(q)
		if !ok {
			token = q
		}
		return a.verifier.Verify(r.Context(), token)
	}
	if a.sessions != nil {
		return a.sessions.Principal(r)
	}
	return nil, ErrUnauthenticated
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
