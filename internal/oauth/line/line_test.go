package line

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = oauth.Credentials{
	ClientID:     "1650000000",
	ClientSecret: "line-secret",
	RedirectURL:  "http://localhost:4001/api/oauth/line/callback",
}

func newTestClient(t *testing.T, h http.Handler) *OAuth {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(testCreds, nil).WithEndpoints(Endpoints{
		Token:   srv.URL + "/token",
		Profile: srv.URL + "/profile",
	})
}

func TestAuthURL(t *testing.T) {
	u, err := url.Parse(New(testCreds, nil).AuthURL("st-1"))
	require.NoError(t, err)
	require.Equal(t, "access.line.me", u.Host)
	require.Equal(t, "/oauth2/v2.1/authorize", u.Path)
	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, testCreds.ClientID, q.Get("client_id"))
	require.Equal(t, testCreds.RedirectURL, q.Get("redirect_uri"))
	require.Equal(t, "st-1", q.Get("state"))
	require.Equal(t, "profile openid email", q.Get("scope"))
}

func TestExchange_Success(t *testing.T) {
	idToken, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":   "U123",
		"email": "somchai@example.com",
	}).SignedString([]byte("channel-secret"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "c0de", r.PostForm.Get("code"))
		assert.Equal(t, testCreds.RedirectURL, r.PostForm.Get("redirect_uri"))
		assert.Equal(t, testCreds.ClientID, r.PostForm.Get("client_id"))
		assert.Equal(t, testCreds.ClientSecret, r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"line-at","token_type":"Bearer","expires_in":2592000,"id_token":"` + idToken + `"}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer line-at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"U123","displayName":"Somchai Jaidee","pictureUrl":"https://profile.line-scdn.net/abc"}`))
	})

	p, tok, err := newTestClient(t, mux).Exchange(context.Background(), "c0de")
	require.NoError(t, err)
	require.Equal(t, oauth.Line, p.Provider)
	require.Equal(t, "U123", p.Subject)
	require.Equal(t, "Somchai", *p.FirstName)
	require.Equal(t, "Jaidee", *p.LastName)
	require.Equal(t, "https://profile.line-scdn.net/abc", *p.AvatarURL)
	require.Equal(t, "somchai@example.com", p.EmailValue())
	require.False(t, p.EmailVerified)
	require.Equal(t, "line-at", tok.AccessToken)
}

func TestExchange_NoEmailWithoutIDToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"line-at"}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"userId":"U9","displayName":"Nok"}`))
	})

	p, _, err := newTestClient(t, mux).Exchange(context.Background(), "c")
	require.NoError(t, err)
	require.Nil(t, p.Email)
	require.Nil(t, p.LastName)
	require.Nil(t, p.AvatarURL)
}

func TestExchange_TokenEndpointRejects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	})

	_, _, err := newTestClient(t, mux).Exchange(context.Background(), "c")
	require.True(t, errors.Is(err, oauth.ErrTokenExchange))
	require.NotContains(t, err.Error(), "line-secret")
}

func TestExchange_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	tokenURL := srv.URL + "/token"
	srv.Close()

	c := New(testCreds, nil).WithEndpoints(Endpoints{Token: tokenURL})
	_, _, err := c.Exchange(context.Background(), "c")
	require.True(t, errors.Is(err, oauth.ErrTokenExchange))
}

func TestExchange_ProfileRejects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"line-at"}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _, err := newTestClient(t, mux).Exchange(context.Background(), "c")
	require.True(t, errors.Is(err, oauth.ErrProfileFetch))
}

func TestExchange_NotConfigured(t *testing.T) {
	c := New(oauth.Credentials{ClientID: "your-line-channel-id", ClientSecret: "x"}, nil)
	require.False(t, c.Configured())
	_, _, err := c.Exchange(context.Background(), "c")
	require.ErrorIs(t, err, oauth.ErrNotConfigured)
}
