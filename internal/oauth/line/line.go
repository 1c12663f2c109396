// Package line implementa a mano el intercambio de LINE Login v2.1.
// LINE no devuelve el perfil en la respuesta del token: después del
// intercambio se llama a la API de perfil con el access token.
package line

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	authEndpoint    = "https://access.line.me/oauth2/v2.1/authorize"
	tokenEndpoint   = "https://api.line.me/oauth2/v2.1/token"
	profileEndpoint = "https://api.line.me/v2/profile"

	userAgent = "loyaltyauth/1.0"
)

var defaultScopes = []string{"profile", "openid", "email"}

// Endpoints pisa las URLs de LINE (tests).
type Endpoints struct {
	Auth    string
	Token   string
	Profile string
}

// OAuth es el cliente de LINE Login.
type OAuth struct {
	creds     oauth.Credentials
	Scopes    []string
	endpoints Endpoints

	http *http.Client
}

// New crea el cliente de LINE con timeout de 10s.
func New(creds oauth.Credentials, scopes []string) *OAuth {
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	return &OAuth{
		creds:  creds,
		Scopes: scopes,
		endpoints: Endpoints{
			Auth:    authEndpoint,
			Token:   tokenEndpoint,
			Profile: profileEndpoint,
		},
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithEndpoints reemplaza los endpoints no vacíos.
func (l *OAuth) WithEndpoints(e Endpoints) *OAuth {
	if e.Auth != "" {
		l.endpoints.Auth = e.Auth
	}
	if e.Token != "" {
		l.endpoints.Token = e.Token
	}
	if e.Profile != "" {
		l.endpoints.Profile = e.Profile
	}
	return l
}

// WithHTTPClient cambia el transporte.
func (l *OAuth) WithHTTPClient(c *http.Client) *OAuth {
	if c != nil {
		l.http = c
	}
	return l
}

func (l *OAuth) Provider() oauth.Provider { return oauth.Line }

func (l *OAuth) Configured() bool { return l.creds.Valid() }

// AuthURL arma la URL de autorización de LINE Login.
func (l *OAuth) AuthURL(state string) string {
	u, _ := url.Parse(l.endpoints.Auth)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", l.creds.ClientID)
	q.Set("redirect_uri", l.creds.RedirectURL)
	q.Set("state", state)
	q.Set("scope", strings.Join(l.Scopes, " "))
	u.RawQuery = q.Encode()
	return u.String()
}

// TokenResponse es la respuesta del token endpoint de LINE.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token"`
}

// ExchangeCode envía el authorization code al token endpoint.
func (l *OAuth) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", l.creds.RedirectURL)
	form.Set("client_id", l.creds.ClientID)
	form.Set("client_secret", l.creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoints.Token, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// el body puede traer error/error_description; no lo propagamos
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", oauth.ErrTokenExchange, resp.StatusCode)
	}

	var tr TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tr); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", oauth.ErrTokenExchange, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access_token in response", oauth.ErrTokenExchange)
	}
	return &tr, nil
}

// Profile es el documento de la API de perfil de LINE.
type Profile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl"`
	StatusMessage string `json:"statusMessage"`
}

// GetProfile trae el perfil con el bearer token.
func (l *OAuth) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoints.Profile, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrProfileFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", oauth.ErrProfileFetch, resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", oauth.ErrProfileFetch, err)
	}
	return &p, nil
}

// Exchange hace el intercambio del token y después trae el perfil.
func (l *OAuth) Exchange(ctx context.Context, code string) (*oauth.Profile, *oauth.Token, error) {
	if !l.Configured() {
		return nil, nil, oauth.ErrNotConfigured
	}
	tr, err := l.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	lp, err := l.GetProfile(ctx, tr.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	p := &oauth.Profile{
		Provider:    oauth.Line,
		Subject:     lp.UserID,
		DisplayName: oauth.StrPtr(lp.DisplayName),
		AvatarURL:   oauth.StrPtr(lp.PictureURL),
	}
	p.FirstName, p.LastName = oauth.SplitName(lp.DisplayName)
	p.Email = emailFromIDToken(tr.IDToken)

	return p, &oauth.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		IDToken:      tr.IDToken,
		TokenType:    tr.TokenType,
		ExpiresIn:    tr.ExpiresIn,
	}, nil
}

// emailFromIDToken lee el claim email. El id_token llega directo del token
// endpoint por TLS, así que no se re-verifica la firma. Los emails de LINE
// nunca cuentan como verificados.
func emailFromIDToken(raw string) *string {
	if raw == "" {
		return nil
	}
	claims := jwtv5.MapClaims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}
	email, _ := claims["email"].(string)
	return oauth.StrPtr(strings.TrimSpace(email))
}
