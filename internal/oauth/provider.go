// Package oauth define el contrato común a los adapters de Google y LINE:
// el enum de providers, el perfil normalizado y los errores sentinel que el
// callback traduce a códigos de redirect.
package oauth

import (
	"context"
	"errors"
	"strings"
)

// Provider identifica un proveedor de identidad externo.
type Provider string

const (
	Google Provider = "google"
	Line   Provider = "line"
)

// Providers lista los providers soportados en orden de presentación.
var Providers = []Provider{Google, Line}

// ParseProvider normaliza un segmento del path a Provider.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case Google:
		return Google, true
	case Line:
		return Line, true
	}
	return "", false
}

func (p Provider) String() string { return string(p) }

// DisplayName se usa en la página HTML de redirect.
func (p Provider) DisplayName() string {
	switch p {
	case Google:
		return "Google"
	case Line:
		return "LINE"
	}
	return string(p)
}

var (
	ErrNotConfigured   = errors.New("provider not configured")
	ErrTokenExchange   = errors.New("token_exchange_failed")
	ErrProfileFetch    = errors.New("profile_fetch_failed")
	ErrUnknownProvider = errors.New("unknown provider")
)

// Profile es la identidad normalizada que devuelve un adapter.
// Email es nil si el provider no lo informó.
type Profile struct {
	Provider      Provider
	Subject       string
	Email         *string
	EmailVerified bool
	FirstName     *string
	LastName      *string
	DisplayName   *string
	AvatarURL     *string
}

// EmailValue devuelve el email o "".
func (p *Profile) EmailValue() string {
	if p == nil || p.Email == nil {
		return ""
	}
	return *p.Email
}

// Token es la respuesta cruda del provider. No sale del callback.
type Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	ExpiresIn    int64
}

// Adapter se implementa una vez por provider.
type Adapter interface {
	Provider() Provider
	// Configured indica si hay credenciales reales (no placeholders).
	Configured() bool
	// AuthURL arma la URL de autorización con el state.
	AuthURL(state string) string
	// Exchange cambia el code por un perfil normalizado.
	Exchange(ctx context.Context, code string) (*Profile, *Token, error)
}

// Registry mapea providers a adapters. Se arma al arrancar y se inyecta.
type Registry map[Provider]Adapter

// NewRegistry indexa los adapters por provider.
func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		if a != nil {
			r[a.Provider()] = a
		}
	}
	return r
}

// Get devuelve el adapter de p.
func (r Registry) Get(p Provider) (Adapter, bool) {
	a, ok := r[p]
	return a, ok
}
