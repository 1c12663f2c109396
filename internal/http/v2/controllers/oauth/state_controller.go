package oauth

import (
	"net/http"

	dto "github.com/dropDatabas3/loyaltyauth/internal/http/v2/dto/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

// StateController expone la salud y limpieza del state store.
type StateController struct {
	service svc.StateService
}

// NewStateController crea el controller del state store.
func NewStateController(service svc.StateService) *StateController {
	return &StateController{service: service}
}

// Health maneja GET /oauth/state/health.
func (c *StateController) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.Health(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("state health failed", logger.Op("StateController.Health"), logger.Err(err))
		helpers.WriteJSON(w, r, http.StatusServiceUnavailable, dto.StateHealthResponse{
			Error: "state store unavailable",
		})
		return
	}
	helpers.WriteJSON(w, r, http.StatusOK, dto.StateHealthResponse{Success: true, Healthy: true, Stats: stats})
}

// Cleanup maneja POST /oauth/state/cleanup.
func (c *StateController) Cleanup(w http.ResponseWriter, r *http.Request) {
	n, err := c.service.Cleanup(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("state cleanup failed", logger.Op("StateController.Cleanup"), logger.Err(err))
		helpers.WriteJSON(w, r, http.StatusServiceUnavailable, dto.CleanupResponse{Error: "state store unavailable"})
		return
	}
	helpers.WriteJSON(w, r, http.StatusOK, dto.CleanupResponse{Success: true, DeletedCount: n})
}
