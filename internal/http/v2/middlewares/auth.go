package middlewares

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/loyaltyauth/internal/http/v2/errors"
	jwtx "github.com/dropDatabas3/loyaltyauth/internal/jwt"
)

// AccessParser es lo que los middlewares necesitan del issuer.
type AccessParser interface {
	ParseAccess(token string) (*jwtx.Claims, error)
}

func bearer(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(ah[7:])
	return raw, raw != ""
}

// RequireAuth valida Authorization: Bearer <JWT> y guarda las claims en el contexto.
// Si el token es inválido o no está presente, responde 401.
func RequireAuth(p AccessParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			claims, err := p.ParseAccess(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				if stderrors.Is(err, jwtx.ErrTokenExpired) {
					errors.WriteError(w, errors.ErrTokenExpired)
					return
				}
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth intenta validar el token pero NO falla si falta o es inválido.
func OptionalAuth(p AccessParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearer(r); ok {
				if claims, err := p.ParseAccess(raw); err == nil {
					r = r.WithContext(WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
