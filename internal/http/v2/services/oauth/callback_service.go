package oauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/audit"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/helpers"
	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	jwtx "github.com/dropDatabas3/loyaltyauth/internal/jwt"
	"github.com/dropDatabas3/loyaltyauth/internal/metrics"
	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/oauthstate"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
	"github.com/dropDatabas3/loyaltyauth/internal/validation"
)

// CallbackService procesa el retorno del provider. Siempre produce un redirect.
type CallbackService interface {
	Callback(ctx context.Context, req CallbackRequest) Outcome
}

// CallbackRequest son los query params del callback más el User-Agent.
type CallbackRequest struct {
	Provider         string
	Code             string
	State            string
	Error            string
	ErrorDescription string
	UserAgent        string
}

// Outcome es el destino final del navegador.
// Code vacío significa login exitoso.
type Outcome struct {
	RedirectURL  string
	Code         string
	IsNewUser    bool
	UserID       string
	Incompatible bool
}

// Success reporta si el login terminó bien.
func (o Outcome) Success() bool { return o.Code == "" }

// CallbackDeps contiene las dependencias del callback service.
type CallbackDeps struct {
	Adapters    idp.Registry
	States      oauthstate.Store
	Resolver    IdentityResolver
	Tokens      TokenMinter
	FrontendURL string
}

type callbackService struct {
	deps CallbackDeps
}

// NewCallbackService crea el service de callback.
func NewCallbackService(d CallbackDeps) CallbackService {
	return &callbackService{deps: d}
}

func (s *callbackService) Callback(ctx context.Context, req CallbackRequest) (out Outcome) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("CallbackService.Callback"))
	incompatible := helpers.IsRedirectIncompatible(req.UserAgent)
	frontend := s.deps.FrontendURL
	providerLabel := strings.ToLower(strings.TrimSpace(req.Provider))

	fail := func(base, code string) Outcome {
		return Outcome{RedirectURL: LoginErrorURL(base, code), Code: code, Incompatible: incompatible}
	}
	defer func() {
		label := out.Code
		if label == "" {
			label = codeSuccess
		}
		metrics.Callbacks.WithLabelValues(providerLabel, label).Inc()
	}()

	p, ok := idp.ParseProvider(req.Provider)
	if !ok {
		providerLabel = "unknown"
		log.Warn("callback for unknown provider")
		return fail(frontend, CodeInvalid)
	}
	log = log.With(logger.Provider(p.String()))

	// Sólo errores conocidos cortan el flujo; cualquier otro valor se ignora.
	if code, ok := idp.ValidError(req.Error); ok {
		log.Warn("provider returned error",
			logger.ErrorCode(code),
			logger.String("description", logger.Sanitize(req.ErrorDescription, maxErrorDescriptionLn)),
		)
		return fail(frontend, CodeProviderError)
	}

	code := strings.TrimSpace(req.Code)
	state := strings.TrimSpace(req.State)
	if code == "" || state == "" {
		log.Warn("missing code or state", logger.Bool("has_code", code != ""), logger.Bool("has_state", state != ""))
		return fail(frontend, CodeInvalid)
	}
	log = log.With(logger.StateToken(state))

	// Take consume el state en la misma operación: un segundo callback con el
	// mismo token ve session_expired.
	rec, err := s.deps.States.Take(ctx, state, p)
	switch {
	case errors.Is(err, oauthstate.ErrNotFound):
		log.Warn("state not found or expired")
		return fail(frontend, CodeSessionExpired)
	case err != nil:
		log.Error("state lookup failed", logger.Err(err))
		return fail(frontend, CodeStateError)
	}

	returnURL, rejected := validation.CheckReturnURL(rec.ReturnURL, frontend)
	if rejected {
		origin, _ := validation.Origin(rec.ReturnURL)
		log.Warn("stored return url rejected", logger.String("origin", origin))
	}
	log = log.With(logger.String("session_id", rec.SessionID))

	adapter, ok := s.deps.Adapters.Get(p)
	if !ok || !adapter.Configured() {
		log.Error("adapter missing at callback")
		return fail(returnURL, CodeAuthError)
	}

	start := time.Now()
	profile, _, err := adapter.Exchange(ctx, code)
	metrics.ObserveProvider(p.String(), "exchange", start)
	if err != nil {
		log.Warn("provider exchange failed", logger.Err(err))
		switch {
		case errors.Is(err, idp.ErrTokenExchange):
			return fail(returnURL, CodeTokenFailed)
		case errors.Is(err, idp.ErrProfileFetch):
			return fail(returnURL, CodeProfileFailed)
		default:
			return fail(returnURL, CodeAuthError)
		}
	}

	res, err := s.deps.Resolver.Resolve(ctx, profile)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidProfile) {
			log.Warn("incomplete provider profile", logger.Err(err))
			return fail(returnURL, CodeIncomplete)
		}
		log.Error("identity resolution failed", logger.Err(err))
		return fail(returnURL, CodeProcessingFailed)
	}
	if res == nil || res.User == nil {
		log.Error("resolver returned no user")
		return fail(returnURL, CodeNoUser)
	}
	user := res.User

	pair, err := s.deps.Tokens.Mint(jwtx.Subject{ID: user.ID, Email: user.Email, Role: string(user.Role)})
	if err != nil {
		log.Error("token mint failed", logger.Err(err))
		return fail(returnURL, CodeProcessingFailed)
	}

	audit.Log(ctx, audit.EventOAuthLogin, map[string]any{
		"provider":   p.String(),
		"user_id":    user.ID,
		"is_new":     res.IsNewUser,
		"session_id": rec.SessionID,
		"platform":   rec.Platform,
	})
	log.Info("oauth login completed",
		logger.Phase("callback"),
		logger.UserID(user.ID),
		logger.Bool("is_new_user", res.IsNewUser),
	)

	return Outcome{
		RedirectURL:  SuccessURL(returnURL, pair.AccessToken, pair.RefreshToken, res.IsNewUser),
		IsNewUser:    res.IsNewUser,
		UserID:       user.ID,
		Incompatible: incompatible,
	}
}
