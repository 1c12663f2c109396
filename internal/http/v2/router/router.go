// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/loyaltyauth/internal/http/v2/controllers/health"
	oauthctrl "github.com/dropDatabas3/loyaltyauth/internal/http/v2/controllers/oauth"
	httperrors "github.com/dropDatabas3/loyaltyauth/internal/http/v2/errors"
	mw "github.com/dropDatabas3/loyaltyauth/internal/http/v2/middlewares"
)

// APIPrefix replica las rutas bajo /api, como las consume el frontend.
const APIPrefix = "/api"

// Deps contiene todas las dependencias del router.
type Deps struct {
	// Controllers
	OAuth  *oauthctrl.Controllers
	Health *healthctrl.HealthController

	// Middlewares
	Auth        mw.AccessParser // valida Bearer en /oauth/me y /oauth/link
	RateLimiter mw.Middleware   // opcional, sólo inicio y callback

	// TrustedProxies habilita X-Forwarded-For desde esos peers.
	TrustedProxies mw.TrustedProxies

	// Metrics es el handler de /metrics. nil = no se expone.
	Metrics http.Handler
}

// New registra todas las rutas y devuelve el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(deps.TrustedProxies),
		mw.WithMetrics(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if deps.Health != nil {
		RegisterHealthRoutes(r, deps.Health)
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.OAuth != nil {
		oauth := oauthRoutes(deps)
		r.Route("/oauth", oauth)
		r.Route(APIPrefix+"/oauth", oauth)
	}
	return r
}
