// Package oauth contiene los services del flujo de login federado
// (inicio, callback, sesión actual, state store y vinculación de cuentas).
// No escriben HTTP: devuelven resultados que el controller renderiza.
package oauth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	jwtx "github.com/dropDatabas3/loyaltyauth/internal/jwt"
	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/oauthstate"
)

// IdentityResolver es la parte del resolver que usan los services.
type IdentityResolver interface {
	Resolve(ctx context.Context, p *idp.Profile) (*identity.Result, error)
	Link(ctx context.Context, userID string, p *idp.Profile) (*identity.User, error)
}

// UserFinder carga usuarios por id para /oauth/me.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*identity.User, error)
}

// TokenMinter emite el par access/refresh.
type TokenMinter interface {
	Mint(sub jwtx.Subject) (jwtx.Pair, error)
}

// Deps contiene las dependencias para crear los services oauth.
type Deps struct {
	Adapters    idp.Registry     // Adapters construidos al arrancar
	States      oauthstate.Store // Redis o memoria
	Resolver    IdentityResolver // Find-or-create + elevación + loyalty
	Users       UserFinder       // Lectura de usuarios
	Tokens      TokenMinter      // Emisor JWT
	FrontendURL string           // Origen por defecto para redirects
}

// Services agrupa los services del dominio oauth.
type Services struct {
	Start    StartService
	Callback CallbackService
	Me       MeService
	State    StateService
	Link     LinkService
}

// NewServices crea el agregador de services oauth.
func NewServices(d Deps) Services {
	frontend := strings.TrimRight(d.FrontendURL, "/")
	return Services{
		Start: NewStartService(StartDeps{
			Adapters:    d.Adapters,
			States:      d.States,
			FrontendURL: frontend,
		}),
		Callback: NewCallbackService(CallbackDeps{
			Adapters:    d.Adapters,
			States:      d.States,
			Resolver:    d.Resolver,
			Tokens:      d.Tokens,
			FrontendURL: frontend,
		}),
		Me:    NewMeService(d.Users),
		State: NewStateService(d.States),
		Link: NewLinkService(LinkDeps{
			Adapters: d.Adapters,
			Resolver: d.Resolver,
		}),
	}
}
