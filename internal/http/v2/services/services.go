// Package services agrupa todos los services HTTP V2.
// Este es el "composition root" de services: cada dominio tiene su
// aggregator en su sub-paquete (services/{dominio}/services.go) y se
// instancia acá, en un único lugar.
package services

import (
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/health"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
)

// Deps contiene las dependencias base para crear los services.
type Deps struct {
	OAuth  oauth.Deps  // Adapters, state store, resolver, issuer
	Health health.Deps // Checks para /readyz
}

// Services agrupa todos los sub-services por dominio.
type Services struct {
	OAuth  oauth.Services       // Login federado, /me, state, link
	Health health.HealthService // Health checks (readyz)
}

// New crea el agregador de services con todas las dependencias inyectadas.
func New(d Deps) *Services {
	return &Services{
		OAuth:  oauth.NewServices(d.OAuth),
		Health: health.NewHealthService(d.Health),
	}
}
