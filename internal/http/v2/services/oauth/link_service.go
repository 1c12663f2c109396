package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/audit"
	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	"github.com/dropDatabas3/loyaltyauth/internal/metrics"
	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

// LinkService vincula una identidad externa a un usuario ya autenticado.
type LinkService interface {
	Link(ctx context.Context, req LinkRequest) (*identity.User, error)
}

// LinkRequest: el code viene del frontend, que hizo el authorize por su cuenta.
type LinkRequest struct {
	UserID   string
	Provider string
	Code     string
}

// LinkDeps contiene las dependencias del link service.
type LinkDeps struct {
	Adapters idp.Registry
	Resolver IdentityResolver
}

type linkService struct {
	deps LinkDeps
}

// NewLinkService crea el service de vinculación.
func NewLinkService(d LinkDeps) LinkService {
	return &linkService{deps: d}
}

func (s *linkService) Link(ctx context.Context, req LinkRequest) (*identity.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("LinkService.Link"))

	p, ok := idp.ParseProvider(req.Provider)
	if !ok {
		return nil, ErrUnknownProvider
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, ErrMissingCode
	}
	adapter, ok := s.deps.Adapters.Get(p)
	if !ok || !adapter.Configured() {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, p)
	}

	start := time.Now()
	profile, _, err := adapter.Exchange(ctx, code)
	metrics.ObserveProvider(p.String(), "link_exchange", start)
	if err != nil {
		log.Warn("link exchange failed", logger.Provider(p.String()), logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	u, err := s.deps.Resolver.Link(ctx, req.UserID, profile)
	switch {
	case errors.Is(err, identity.ErrAlreadyLinked):
		return nil, ErrAlreadyLinked
	case errors.Is(err, identity.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, identity.ErrInvalidProfile):
		return nil, ErrIncompleteProfile
	case err != nil:
		return nil, err
	}

	audit.Log(ctx, audit.EventOAuthLink, map[string]any{
		"provider": p.String(),
		"user_id":  u.ID,
	})
	return u, nil
}
