package oauth

import "strings"

// validErrors son los códigos de error del provider que aceptamos en logs:
// RFC 6749 §4.1.2.1 más las extensiones de prompt de OIDC.
var validErrors = map[string]struct{}{
	"invalid_request":           {},
	"unauthorized_client":       {},
	"access_denied":             {},
	"unsupported_response_type": {},
	"invalid_scope":             {},
	"server_error":              {},
	"temporarily_unavailable":   {},
	"interaction_required":      {},
	"login_required":            {},
	"consent_required":          {},
}

// ValidError devuelve el código si está en la whitelist. Cualquier otro
// valor cuenta como "sin error".
func ValidError(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if _, ok := validErrors[code]; ok {
		return code, true
	}
	return "", false
}
