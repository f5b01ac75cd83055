package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{"t0k3n": "alice", "other": "bob"})

	tests := []struct {
		name     string
		token    string
		wantUser string
	}{
		{name: "known token", token: "t0k3n", wantUser: "alice"},
		{name: "second token", token: "other", wantUser: "bob"},
		{name: "unknown token", token: "nope"},
		{name: "prefix of a token", token: "t0k"},
		{name: "empty token", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := v.Verify(context.Background(), tt.token)
			if tt.wantUser == "" {
				assert.ErrorIs(t, err, ErrUnauthenticated)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, p.Username)
		})
	}
}

func TestStaticVerifier_CopiesTokens(t *testing.T) {
	tokens := map[string]string{"t0k3n": "alice"}
	v := NewStaticVerifier(tokens)
	delete(tokens, "t0k3n")

	_, err := v.Verify(context.Background(), "t0k3n")
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer abc", want: "abc", ok: true},
		{header: "  Bearer   abc  ", want: "abc", ok: true},
		{header: "Basic abc"},
		{header: "Bearer"},
		{header: "Bearer "},
		{header: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticator_Authenticate(t *testing.T) {
	sessions := NewSessions(testSecret, time.Hour)
	a := NewAuthenticator(NewStaticVerifier(map[string]string{"t0k3n": "alice"}), sessions)

	// A cookie minted by a login round trip.
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(rec, httptest.NewRequest(http.MethodPost, "/", nil), &Principal{Username: "carol"}))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]

	tests := []struct {
		name     string
		build    func(r *http.Request)
		target   string
		wantUser string
	}{
		{
			name:     "bearer header",
			build:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer t0k3n") },
			wantUser: "alice",
		},
		{
			name:  "bad bearer header",
			build: func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong") },
		},
		{
			name:  "non-bearer header does not fall through to the cookie",
			build: func(r *http.Request) { r.Header.Set("Authorization", "Basic x"); r.AddCookie(cookie) },
		},
		{
			name:     "query parameter with scheme",
			target:   "/?authorization=Bearer%20t0k3n",
			wantUser: "alice",
		},
		{
			name:     "query parameter without scheme",
			target:   "/?authorization=t0k3n",
			wantUser: "alice",
		},
		{
			name:     "session cookie",
			build:    func(r *http.Request) { r.AddCookie(cookie) },
			wantUser: "carol",
		},
		{
			name: "tampered cookie",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionName, Value: cookie.Value + "x"})
			},
		},
		{
			name: "nothing presented",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target
			if target == "" {
				target = "/"
			}
			r := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.build != nil {
				tt.build(r)
			}

			p, err := a.Authenticate(r)
			if tt.wantUser == "" {
				assert.ErrorIs(t, err, ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, p.Username)
		})
	}
}

func TestAuthenticator_WithoutSessions(t *testing.T) {
	a := NewAuthenticator(NewStaticVerifier(nil), NewSessions("", time.Hour))
	assert.Nil(t, a.Sessions())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionName, Value: "anything"})
	_, err := a.Authenticate(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessions_Logout(t *testing.T) {
	s := NewSessions(testSecret, time.Hour)

	rec := httptest.NewRecorder()
	require.NoError(t, s.Logout(rec, httptest.NewRequest(http.MethodDelete, "/", nil)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), &Principal{Username: "alice"})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
}
