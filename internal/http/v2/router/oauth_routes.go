package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/loyaltyauth/internal/http/v2/middlewares"
)

// oauthRoutes devuelve el sub-árbol /oauth. Se monta en la raíz y bajo /api.
func oauthRoutes(deps Deps) func(r chi.Router) {
	c := deps.OAuth
	limit := deps.RateLimiter
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	return func(r chi.Router) {
		r.Use(mw.WithLogging(), mw.WithNoStore())

		// Rutas estáticas: chi las prioriza sobre /{provider}
		r.Get("/state/health", c.State.Health)
		r.Post("/state/cleanup", c.State.Cleanup)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps.Auth))
			r.Get("/me", c.Me.Me)
			r.Post("/link/{provider}", c.Link.Link)
		})

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.With(mw.OptionalAuth(deps.Auth)).Get("/{provider}", c.Start.Start)
			r.Get("/{provider}/callback", c.Callback.Callback)
		})
	}
}
