package oauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
)

// CallbackController maneja GET /oauth/{provider}/callback.
type CallbackController struct {
	service svc.CallbackService
}

// NewCallbackController crea el controller de callback.
func NewCallbackController(service svc.CallbackService) *CallbackController {
	return &CallbackController{service: service}
}

// Callback siempre termina en un redirect al frontend.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out := c.service.Callback(r.Context(), svc.CallbackRequest{
		Provider:         chi.URLParam(r, "provider"),
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		UserAgent:        r.UserAgent(),
	})

	msg := helpers.MsgRedirectFailure
	if out.Success() {
		msg = helpers.MsgRedirectSuccess
	}
	helpers.Redirect(w, out.RedirectURL, msg, out.Incompatible)
}
