package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestStrategy(t *testing.T, h http.Handler) *Strategy {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(oauth.Credentials{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURL:  "http://localhost:4001/api/oauth/google/callback",
	}, Options{
		Endpoint: &oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: srv.URL + "/userinfo",
	})
}

func TestAuthURL(t *testing.T) {
	s := New(oauth.Credentials{ClientID: "cid", ClientSecret: "sec", RedirectURL: "https://api.example/cb"}, Options{})
	u, err := url.Parse(s.AuthURL("state-xyz"))
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "cid", q.Get("client_id"))
	require.Equal(t, "https://api.example/cb", q.Get("redirect_uri"))
	require.Equal(t, "profile email", q.Get("scope"))
	require.Equal(t, "state-xyz", q.Get("state"))
}

func TestConfigured(t *testing.T) {
	require.False(t, New(oauth.Credentials{ClientID: "your-client-id", ClientSecret: "x1"}, Options{}).Configured())
	require.True(t, New(oauth.Credentials{ClientID: "abc", ClientSecret: "def"}, Options{}).Configured())
}

func TestExchange_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600,"id_token":"idt"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"g-42","email":"ada@example.com","verified_email":true,"name":"Ada Lovelace","given_name":"Ada","family_name":"Lovelace","picture":"https://lh3.example/p.png"}`))
	})
	s := newTestStrategy(t, mux)

	p, tok, err := s.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, oauth.Google, p.Provider)
	require.Equal(t, "g-42", p.Subject)
	require.Equal(t, "ada@example.com", p.EmailValue())
	require.True(t, p.EmailVerified)
	require.Equal(t, "Ada", *p.FirstName)
	require.Equal(t, "Lovelace", *p.LastName)
	require.Equal(t, "https://lh3.example/p.png", *p.AvatarURL)
	require.Equal(t, "at-1", tok.AccessToken)
	require.Equal(t, "idt", tok.IDToken)
}

func TestExchange_NameFallback(t *testing.T) {
	p := normalize(&userInfo{ID: "1", Email: "a@b.c", Name: "Grace Brewster Hopper"})
	require.Equal(t, "Grace", *p.FirstName)
	require.Equal(t, "Brewster Hopper", *p.LastName)
	require.False(t, p.EmailVerified)
	require.Nil(t, p.AvatarURL)
}

func TestExchange_TokenFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	s := newTestStrategy(t, mux)

	_, _, err := s.Exchange(context.Background(), "bad")
	require.Error(t, err)
	require.True(t, errors.Is(err, oauth.ErrTokenExchange))
}

func TestExchange_ProfileFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	s := newTestStrategy(t, mux)

	_, _, err := s.Exchange(context.Background(), "code")
	require.True(t, errors.Is(err, oauth.ErrProfileFetch))
}
