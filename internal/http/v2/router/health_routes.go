package router

import (
	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/loyaltyauth/internal/http/v2/controllers/health"
)

// RegisterHealthRoutes registra /healthz y /readyz.
// Sin logging (muy frecuentes).
func RegisterHealthRoutes(r chi.Router, c *ctrl.HealthController) {
	for _, p := range []string{"", APIPrefix} {
		r.Get(p+"/healthz", c.Healthz)
		r.Get(p+"/readyz", c.Readyz)
	}
}
