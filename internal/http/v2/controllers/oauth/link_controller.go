package oauth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/loyaltyauth/internal/http/v2/dto/oauth"
	httperrors "github.com/dropDatabas3/loyaltyauth/internal/http/v2/errors"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/helpers"
	mw "github.com/dropDatabas3/loyaltyauth/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

// LinkController maneja POST /oauth/link/{provider}. Requiere RequireAuth delante.
type LinkController struct {
	service svc.LinkService
}

// NewLinkController crea el controller de vinculación.
func NewLinkController(service svc.LinkService) *LinkController {
	return &LinkController{service: service}
}

func (c *LinkController) Link(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := mw.GetUserID(ctx)
	if uid == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var body dto.LinkRequest
	if err := helpers.ReadJSON(w, r, &body); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code"))
		return
	}

	provider := chi.URLParam(r, "provider")
	u, err := c.service.Link(ctx, svc.LinkRequest{UserID: uid, Provider: provider, Code: body.Code})
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrUnknownProvider):
			httperrors.WriteError(w, httperrors.ErrUnknownProvider.WithDetail(provider))
		case errors.Is(err, svc.ErrNotConfigured):
			httperrors.WriteError(w, httperrors.ErrProviderNotConfigured)
		case errors.Is(err, svc.ErrMissingCode):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code"))
		case errors.Is(err, svc.ErrAlreadyLinked):
			httperrors.WriteError(w, httperrors.ErrProviderAlreadyLinked)
		case errors.Is(err, svc.ErrUserNotFound):
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
		case errors.Is(err, svc.ErrIncompleteProfile):
			httperrors.WriteError(w, httperrors.ErrIncompleteProfile)
		case errors.Is(err, svc.ErrExchange):
			httperrors.WriteError(w, httperrors.ErrProviderExchange.WithCause(err))
		default:
			logger.From(ctx).Error("link failed", logger.Op("LinkController.Link"), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		}
		return
	}

	p, _ := idp.ParseProvider(provider)
	helpers.WriteJSON(w, r, http.StatusOK, dto.LinkResponse{
		Success: true,
		Message: p.String() + " account linked successfully",
		User:    u,
	})
}
