// Package app compone services, controllers y router en un http.Handler.
package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/controllers"
	mw "github.com/dropDatabas3/loyaltyauth/internal/http/v2/middlewares"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/router"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/services"
	healthsvc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/health"
	oauthsvc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
	jwtx "github.com/dropDatabas3/loyaltyauth/internal/jwt"
	"github.com/dropDatabas3/loyaltyauth/internal/metrics"
	"github.com/dropDatabas3/loyaltyauth/internal/rate"
)

// Deps son las dependencias crudas para armar la app.
type Deps struct {
	OAuth  oauthsvc.Deps
	Health healthsvc.Deps
	Issuer *jwtx.Issuer

	// RateLimiter es opcional; nil = sin límite en inicio/callback.
	RateLimiter rate.Limiter

	// TrustedProxies: peers cuyo X-Forwarded-For se acepta (rate limit, logs).
	TrustedProxies mw.TrustedProxies

	// Registry para /metrics. nil = prometheus.DefaultRegisterer/DefaultGatherer.
	Registry *prometheus.Registry
}

// App es la aplicación ya cableada.
type App struct {
	Handler  http.Handler
	Services *services.Services
}

// New crea y cablea la aplicación.
func New(deps Deps) (*App, error) {
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		exporter                       = promhttp.Handler()
	)
	if deps.Registry != nil {
		reg = deps.Registry
		exporter = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
	}
	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("register oauth metrics: %w", err)
	}
	if err := mw.RegisterHTTPMetrics(reg); err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	// 1. Services
	svcs := services.New(services.Deps{
		OAuth:  deps.OAuth,
		Health: deps.Health,
	})

	// 2. Controllers
	ctrls := controllers.New(svcs, deps.OAuth.FrontendURL)

	// 3. Router
	var limiter mw.Middleware
	if deps.RateLimiter != nil {
		limiter = mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.RateLimiter, KeyFunc: mw.IPOnlyRateKey})
	}
	handler := router.New(router.Deps{
		OAuth:          ctrls.OAuth,
		Health:         ctrls.Health,
		Auth:           deps.Issuer,
		RateLimiter:    limiter,
		TrustedProxies: deps.TrustedProxies,
		Metrics:        exporter,
	})

	return &App{Handler: handler, Services: svcs}, nil
}
