package oauth

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/loyaltyauth/internal/http/v2/errors"
	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/helpers"
	mw "github.com/dropDatabas3/loyaltyauth/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
)

// StartController maneja GET /oauth/{provider}.
type StartController struct {
	service     svc.StartService
	frontendURL string
}

// NewStartController crea el controller de inicio.
func NewStartController(service svc.StartService, frontendURL string) *StartController {
	return &StartController{service: service, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// Start guarda el state y manda al navegador al provider.
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Start"))

	q := r.URL.Query()
	provider := chi.URLParam(r, "provider")

	req := svc.StartRequest{
		Provider:    provider,
		ReturnURL:   returnURLParam(q),
		PWA:         queryBool(q.Get("pwa")),
		Standalone:  queryBool(q.Get("standalone")),
		Platform:    q.Get("platform"),
		UserAgent:   r.UserAgent(),
		IP:          mw.ClientIP(r),
		Host:        r.Host,
		Secure:      mw.IsSecure(r),
		OriginalURL: r.URL.Path,
	}
	if uid := mw.GetUserID(ctx); uid != "" {
		req.UserID = &uid
	}

	res, err := c.service.Start(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrUnknownProvider):
			httperrors.WriteError(w, httperrors.ErrUnknownProvider.WithDetail(provider))
		case errors.Is(err, svc.ErrNotConfigured):
			helpers.StandardRedirect(w, svc.LoginErrorURL(c.frontendURL, svc.NotConfiguredCode(strings.ToLower(provider))))
		default:
			log.Error("oauth start failed", logger.Err(err))
			helpers.StandardRedirect(w, svc.LoginErrorURL(c.frontendURL, svc.CodeStateError))
		}
		return
	}

	helpers.Redirect(w, res.AuthURL, helpers.MsgRedirectingTo(res.Provider.DisplayName()), res.Incompatible)
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}

// returnURLParam lee return_url; returnUrl se acepta como alias.
func returnURLParam(q url.Values) string {
	if v := strings.TrimSpace(q.Get("return_url")); v != "" {
		return v
	}
	return strings.TrimSpace(q.Get("returnUrl"))
}
