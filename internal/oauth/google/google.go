// Package google usa golang.org/x/oauth2 como estrategia de login de Google.
// La estrategia hace el intercambio del code; acá solo se normaliza el
// documento userinfo a oauth.Profile.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"
)

const userInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

var defaultScopes = []string{"profile", "email"}

// Options pisa endpoints y transporte. Los valores cero usan los de Google.
type Options struct {
	Scopes      []string
	Endpoint    *oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
}

// Strategy es el adapter del provider Google.
type Strategy struct {
	creds       oauth.Credentials
	cfg         *oauth2.Config
	userInfoURL string
	http        *http.Client
}

// New arma la estrategia una vez, al arrancar.
func New(creds oauth.Credentials, opts Options) *Strategy {
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	endpoint := googleendpoint.Endpoint
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}
	userInfoURL := opts.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = userInfoEndpoint
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Strategy{
		creds: creds,
		cfg: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		http:        hc,
	}
}

func (s *Strategy) Provider() oauth.Provider { return oauth.Google }

func (s *Strategy) Configured() bool { return s.creds.Valid() }

// AuthURL devuelve la URL de consentimiento con response_type=code,
// client_id, redirect_uri, scope y state.
func (s *Strategy) AuthURL(state string) string {
	return s.cfg.AuthCodeURL(state)
}

// userInfo es el documento userinfo v2.
type userInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail *bool  `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// Exchange hace el intercambio oauth2 y trae el userinfo.
func (s *Strategy) Exchange(ctx context.Context, code string) (*oauth.Profile, *oauth.Token, error) {
	if !s.Configured() {
		return nil, nil, oauth.ErrNotConfigured
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http)

	tok, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", oauth.ErrTokenExchange, err)
	}

	info, err := s.fetchUserInfo(ctx, tok)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", oauth.ErrProfileFetch, err)
	}

	raw := &oauth.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if idt, ok := tok.Extra("id_token").(string); ok {
		raw.IDToken = idt
	}
	if !tok.Expiry.IsZero() {
		raw.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	return normalize(info), raw, nil
}

func (s *Strategy) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google userinfo: status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("google userinfo: decode: %w", err)
	}
	return &info, nil
}

// normalize prefiere given/family name; si faltan, parte el nombre completo.
func normalize(info *userInfo) *oauth.Profile {
	p := &oauth.Profile{
		Provider:    oauth.Google,
		Subject:     info.ID,
		Email:       oauth.StrPtr(info.Email),
		DisplayName: oauth.StrPtr(info.Name),
		AvatarURL:   oauth.StrPtr(info.Picture),
	}
	if info.VerifiedEmail != nil {
		p.EmailVerified = *info.VerifiedEmail
	}
	if info.GivenName != "" || info.FamilyName != "" {
		p.FirstName = oauth.StrPtr(info.GivenName)
		p.LastName = oauth.StrPtr(info.FamilyName)
	} else {
		p.FirstName, p.LastName = oauth.SplitName(info.Name)
	}
	return p
}
