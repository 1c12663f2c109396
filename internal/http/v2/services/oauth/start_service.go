package oauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/helpers"
	"github.com/dropDatabas3/loyaltyauth/internal/metrics"
	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/oauthstate"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
	"github.com/dropDatabas3/loyaltyauth/internal/validation"
)

// StartService inicia un login: guarda el state y arma la URL del provider.
type StartService interface {
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
}

// StartRequest son los datos del request de inicio.
type StartRequest struct {
	Provider    string
	ReturnURL   string
	PWA         bool
	Standalone  bool
	Platform    string
	UserAgent   string
	IP          string
	Host        string
	Secure      bool
	OriginalURL string
	UserID      *string
}

// StartResult indica a dónde mandar al navegador y cómo.
type StartResult struct {
	Provider     idp.Provider
	AuthURL      string
	State        string
	ReturnURL    string
	Incompatible bool
}

// StartDeps contiene las dependencias del start service.
type StartDeps struct {
	Adapters    idp.Registry
	States      oauthstate.Store
	FrontendURL string
}

type startService struct {
	deps StartDeps
}

// NewStartService crea el service de inicio.
func NewStartService(d StartDeps) StartService {
	return &startService{deps: d}
}

func (s *startService) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("StartService.Start"))

	p, ok := idp.ParseProvider(req.Provider)
	if !ok {
		return nil, ErrUnknownProvider
	}
	log = log.With(logger.Provider(p.String()))

	adapter, ok := s.deps.Adapters.Get(p)
	if !ok || !adapter.Configured() {
		metrics.Initiations.WithLabelValues(p.String(), "not_configured").Inc()
		log.Warn("provider not configured")
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, p)
	}

	returnURL, rejected := validation.CheckReturnURL(req.ReturnURL, s.deps.FrontendURL)
	if rejected {
		origin, _ := validation.Origin(req.ReturnURL)
		log.Warn("return url rejected", logger.String("origin", origin))
	}

	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		platform = defaultPlatform
	}

	rec := oauthstate.Record{
		SessionID:    uuid.NewString(),
		UserID:       req.UserID,
		UserAgent:    req.UserAgent,
		IP:           req.IP,
		Host:         req.Host,
		Secure:       req.Secure,
		Provider:     p,
		ReturnURL:    returnURL,
		OriginalURL:  req.OriginalURL,
		IsPWA:        req.PWA,
		IsStandalone: req.Standalone,
		Platform:     platform,
	}
	token, err := s.deps.States.Create(ctx, rec)
	if err != nil {
		metrics.Initiations.WithLabelValues(p.String(), "state_error").Inc()
		log.Error("state create failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}

	metrics.Initiations.WithLabelValues(p.String(), "ok").Inc()
	log.Info("oauth initiation",
		logger.Phase("start"),
		logger.StateToken(token),
		logger.String("session_id", rec.SessionID),
		logger.String("platform", platform),
	)

	return &StartResult{
		Provider:     p,
		AuthURL:      adapter.AuthURL(token),
		State:        token,
		ReturnURL:    returnURL,
		Incompatible: helpers.IsRedirectIncompatible(req.UserAgent),
	}, nil
}
