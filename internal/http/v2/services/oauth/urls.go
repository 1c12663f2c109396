package oauth

import (
	"net/url"
	"strconv"
	"strings"
)

// LoginErrorURL arma {base}/login?error={code}.
func LoginErrorURL(base, code string) string {
	return strings.TrimRight(base, "/") + loginPath + "?error=" + url.QueryEscape(code)
}

// SuccessURL arma {base}/oauth/success?token=&refreshToken=&isNewUser=.
// El orden de los parámetros es el que espera el frontend.
func SuccessURL(base, access, refresh string, isNewUser bool) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString(successPath)
	b.WriteString("?token=")
	b.WriteString(url.QueryEscape(access))
	b.WriteString("&refreshToken=")
	b.WriteString(url.QueryEscape(refresh))
	b.WriteString("&isNewUser=")
	b.WriteString(strconv.FormatBool(isNewUser))
	return b.String()
}
