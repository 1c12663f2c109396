// Package validation tiene chequeos puros de input, antes de guardar o
// devolver valores al navegador.
package validation

import (
	"net/url"
	"strings"
)

// Origin extrae scheme://host[:port] de una URL http(s) absoluta.
// Se quitan los puertos por defecto: https://a y https://a:443 son iguales.
func Origin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return scheme + "://" + host + ":" + port, true
	}
	return scheme + "://" + host, true
}

// CheckReturnURL devuelve candidate sin cambios si comparte origen con
// frontend; si no, frontend. rejected es true solo cuando se reemplazó un
// candidate no vacío, para que el caller loguee el intento.
func CheckReturnURL(candidate, frontend string) (safe string, rejected bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return frontend, false
	}
	got, ok := Origin(candidate)
	if !ok {
		return frontend, true
	}
	want, ok := Origin(frontend)
	if !ok || got != want {
		return frontend, true
	}
	// "\" y caracteres de control confunden a algunos navegadores
	if strings.ContainsAny(candidate, "\\\r\n\t") {
		return frontend, true
	}
	return candidate, false
}

// ReturnURL es CheckReturnURL sin el flag de rechazo.
func ReturnURL(candidate, frontend string) string {
	safe, _ := CheckReturnURL(candidate, frontend)
	return safe
}
