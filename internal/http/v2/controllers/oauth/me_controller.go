package oauth

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/loyaltyauth/internal/http/v2/dto/oauth"
	httperrors "github.com/dropDatabas3/loyaltyauth/internal/http/v2/errors"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/helpers"
	mw "github.com/dropDatabas3/loyaltyauth/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

// MeController maneja GET /oauth/me. Requiere RequireAuth delante.
type MeController struct {
	service svc.MeService
}

// NewMeController crea el controller de /oauth/me.
func NewMeController(service svc.MeService) *MeController {
	return &MeController{service: service}
}

func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := mw.GetUserID(ctx)
	if uid == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	u, err := c.service.Me(ctx, uid)
	if err != nil {
		if errors.Is(err, svc.ErrUserNotFound) {
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		logger.From(ctx).Error("load current user failed", logger.Op("MeController.Me"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	helpers.WriteJSON(w, r, http.StatusOK, dto.MeResponse{Success: true, User: u})
}
