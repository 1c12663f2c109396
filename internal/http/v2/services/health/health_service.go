// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/loyaltyauth/internal/http/v2/dto/health"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version    string
	StateCheck func(ctx context.Context) error // crítico: sin state no hay login
	DBCheck    func(ctx context.Context) error // nil = identity en memoria
	Timeout    time.Duration
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Version:    s.deps.Version,
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}
	critical, degraded := false, false

	// 1) State store (crítico)
	if s.deps.StateCheck == nil {
		resp.Components["oauth_state"] = dto.HealthStatus{Status: "error", Message: "not initialized"}
		critical = true
	} else if err := s.deps.StateCheck(ctx); err != nil {
		resp.Components["oauth_state"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		critical = true
		log.Error("oauth state unavailable", logger.Err(err))
	} else {
		resp.Components["oauth_state"] = dto.HealthStatus{Status: "ok"}
	}

	// 2) Postgres
	if s.deps.DBCheck == nil {
		resp.Components["db"] = dto.HealthStatus{Status: "disabled", Message: "in-memory identity store"}
	} else if err := s.deps.DBCheck(ctx); err != nil {
		resp.Components["db"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		degraded = true
		log.Error("db unavailable", logger.Err(err))
	} else {
		resp.Components["db"] = dto.HealthStatus{Status: "ok"}
	}

	switch {
	case critical:
		resp.Status = "unavailable"
	case degraded:
		resp.Status = "degraded"
	default:
		resp.Status = "ready"
	}
	return resp
}
