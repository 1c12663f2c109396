// Package server arma el runtime completo (stores, adapters, issuer, app)
// a partir de la configuración y lo sirve.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/loyaltyauth/internal/app"
	"github.com/dropDatabas3/loyaltyauth/internal/config"
	mw "github.com/dropDatabas3/loyaltyauth/internal/http/v2/middlewares"
	healthsvc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/health"
	oauthsvc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	jwtx "github.com/dropDatabas3/loyaltyauth/internal/jwt"
	"github.com/dropDatabas3/loyaltyauth/internal/metrics"
	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/oauth/google"
	"github.com/dropDatabas3/loyaltyauth/internal/oauth/line"
	"github.com/dropDatabas3/loyaltyauth/internal/oauthstate"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
	"github.com/dropDatabas3/loyaltyauth/internal/rate"
	"github.com/dropDatabas3/loyaltyauth/internal/store/pg"
	migrations "github.com/dropDatabas3/loyaltyauth/migrations/postgres"
)

const shutdownTimeout = 15 * time.Second

// Runtime es el servicio cableado.
type Runtime struct {
	Config  *config.Config
	Handler http.Handler
	States  oauthstate.Store
	State   oauthsvc.StateService

	closers []func() error
}

// Build instancia todas las dependencias. Si algo falla, libera lo ya abierto.
func Build(ctx context.Context, cfg *config.Config) (_ *Runtime, err error) {
	log := logger.From(ctx).With(logger.Component("wiring"))
	rt := &Runtime{Config: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	// 1. Identity: Postgres o memoria (dev sin DATABASE_URL)
	var (
		repo          identity.Repository
		membership    identity.MembershipIDs
		loyalty       identity.LoyaltyEnroller
		notifications identity.NotificationDefaults
		dbCheck       func(context.Context) error
	)
	if cfg.Storage.DSN != "" {
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{MaxConns: int32(cfg.Storage.MaxConns)})
		if err != nil {
			return nil, fmt.Errorf("pg: %w", err)
		}
		rt.closers = append(rt.closers, func() error { store.Close(); return nil })

		if cfg.Storage.Migrate {
			res, err := pg.NewMigrator(migrations.FS, migrations.Dir).Up(ctx, store)
			if err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
			log.Info("migrations applied", logger.Int("applied", len(res.Applied)), logger.Int("skipped", len(res.Skipped)))
		}
		if err := prometheus.Register(metrics.NewPoolCollector(store.Pool)); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("pool collector: %w", err)
			}
		}
		repo, membership, dbCheck = store, store, store.Ping
		loyalty, notifications = store.Loyalty(), store.Notifications()
	} else {
		log.Warn("DATABASE_URL vacío: usando identity store en memoria")
		mem := identity.NewMemory()
		repo, membership, loyalty, notifications = mem, mem, mem, mem.Notifications()
	}

	admins, adminPath, err := identity.LoadAdminAllowList(cfg.Identity.AdminConfigPath)
	if err != nil {
		return nil, fmt.Errorf("admin allow-list: %w", err)
	}
	if adminPath != "" {
		log.Info("admin allow-list loaded", logger.String("path", adminPath), logger.Count(admins.Len()))
	}

	resolver := identity.NewResolver(identity.Deps{
		Repo:          repo,
		Membership:    membership,
		Loyalty:       loyalty,
		Notifications: notifications,
		Admins:        admins,
	})

	// 2. State store (+ limiter sobre el mismo Redis)
	var limiter rate.Limiter
	rcfg := oauthstate.RedisConfig{
		URL:      cfg.State.Redis.URL,
		Addr:     cfg.State.Redis.Addr,
		Password: cfg.State.Redis.Password,
		DB:       cfg.State.Redis.DB,
	}
	switch cfg.State.Backend {
	case "redis":
		client, err := oauthstate.NewRedisClient(rcfg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		rt.closers = append(rt.closers, client.Close)
		rt.States = oauthstate.NewRedisFromClient(client, cfg.State.TTL)
		if cfg.Rate.Enabled {
			limiter = rate.NewRedisLimiter(client, "rl:oauth:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	default:
		rt.States = oauthstate.NewMemory(cfg.State.TTL)
		if cfg.Rate.Enabled {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}
	rt.closers = append(rt.closers, rt.States.Close)

	// 3. Providers
	adapters := idp.NewRegistry(
		google.New(idp.Credentials{
			ClientID:     cfg.OAuth.Google.ClientID,
			ClientSecret: cfg.OAuth.Google.ClientSecret,
			RedirectURL:  cfg.OAuth.Google.CallbackURL,
		}, google.Options{}),
		line.New(idp.Credentials{
			ClientID:     cfg.OAuth.Line.ClientID,
			ClientSecret: cfg.OAuth.Line.ClientSecret,
			RedirectURL:  cfg.OAuth.Line.CallbackURL,
		}, nil),
	)
	for _, p := range idp.Providers {
		a, _ := adapters.Get(p)
		if !a.Configured() {
			log.Warn("provider not configured", logger.Provider(p.String()))
		}
	}

	// 4. Issuer
	issuer, err := jwtx.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("jwt issuer: %w", err)
	}

	proxies, err := mw.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	// 5. App
	a, err := app.New(app.Deps{
		OAuth: oauthsvc.Deps{
			Adapters:    adapters,
			States:      rt.States,
			Resolver:    resolver,
			Users:       repo,
			Tokens:      issuer,
			FrontendURL: cfg.Server.FrontendURL,
		},
		Health: healthsvc.Deps{
			StateCheck: rt.States.Ping,
			DBCheck:    dbCheck,
		},
		Issuer:         issuer,
		RateLimiter:    limiter,
		TrustedProxies: proxies,
	})
	if err != nil {
		return nil, err
	}
	rt.Handler = a.Handler
	rt.State = a.Services.OAuth.State
	return rt, nil
}

// Serve levanta el servidor HTTP y, con backend en memoria, el janitor de
// state. Vuelve cuando ctx se cancela y el shutdown termina.
func (rt *Runtime) Serve(ctx context.Context) error {
	cfg := rt.Config
	log := logger.From(ctx).With(logger.Component("server"))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           rt.Handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", logger.String("addr", cfg.Server.Addr), logger.String("frontend", cfg.Server.FrontendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	if cfg.State.Backend != "redis" {
		g.Go(func() error { return rt.State.RunJanitor(gctx, cfg.State.CleanupInterval) })
	}
	return g.Wait()
}

// Close libera recursos en orden inverso de apertura.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
