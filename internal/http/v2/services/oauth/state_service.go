package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/audit"
	"github.com/dropDatabas3/loyaltyauth/internal/metrics"
	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/oauthstate"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

// StateService expone salud y limpieza del state store.
type StateService interface {
	Health(ctx context.Context) (*oauthstate.Stats, error)
	Cleanup(ctx context.Context) (int, error)
	// RunJanitor llama a Cleanup cada interval hasta que ctx se cancele.
	RunJanitor(ctx context.Context, interval time.Duration) error
}

type stateService struct {
	states oauthstate.Store
}

// NewStateService crea el service del state store.
func NewStateService(states oauthstate.Store) StateService {
	return &stateService{states: states}
}

func (s *stateService) Health(ctx context.Context) (*oauthstate.Stats, error) {
	if err := s.states.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	stats, err := s.states.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	providers := make([]string, 0, len(idp.Providers))
	for _, p := range idp.Providers {
		providers = append(providers, p.String())
	}
	metrics.SetStateRecords(stats.ByProvider, providers)
	return &stats, nil
}

func (s *stateService) Cleanup(ctx context.Context) (int, error) {
	n, err := s.states.CleanupExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	audit.Log(ctx, audit.EventOAuthStateCleanup, map[string]any{"deleted": n})
	return n, nil
}

func (s *stateService) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	log := logger.From(ctx).With(logger.Component("state-janitor"))
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := s.Cleanup(ctx)
			if err != nil {
				log.Warn("cleanup failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Debug("expired states removed", logger.Count(n))
			}
		}
	}
}
