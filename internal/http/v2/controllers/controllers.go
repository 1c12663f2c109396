// Package controllers agrupa todos los controllers HTTP V2.
// Este es el "composition root" de controllers.
//
// Flujo de inicialización:
//
//	svcs := services.New(deps)
//	ctrls := controllers.New(svcs, frontendURL)
//	handler := router.New(router.Deps{OAuth: ctrls.OAuth, Health: ctrls.Health, ...})
package controllers

import (
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/controllers/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/services"
)

// Controllers agrupa todos los controllers por dominio.
type Controllers struct {
	OAuth  *oauth.Controllers
	Health *health.HealthController
}

// New crea el agregador de controllers inyectando los services.
func New(s *services.Services, frontendURL string) *Controllers {
	return &Controllers{
		OAuth:  oauth.NewControllers(s.OAuth, frontendURL),
		Health: health.NewHealthController(s.Health),
	}
}
