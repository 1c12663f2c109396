package middlewares

import (
	"context"
	"net/http"
	"strings"

	jwtx "github.com/dropDatabas3/loyaltyauth/internal/jwt"
)

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta las claims del access token en el contexto.
func WithClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

// GetClaims retorna nil si no hay token validado.
func GetClaims(ctx context.Context) *jwtx.Claims {
	c, _ := ctx.Value(ctxClaimsKey).(*jwtx.Claims)
	return c
}

// GetUserID obtiene el user ID del token, "" si no hay.
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return ""
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}

// IsSecure indica si el request llegó por TLS, directo o detrás de un proxy.
func IsSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
