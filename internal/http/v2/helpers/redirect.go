package helpers

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
)

// Mensajes mostrados en la página HTML de redirección.
const (
	MsgRedirectSuccess = "Authentication successful! Redirecting..."
	MsgRedirectFailure = "Authentication failed. Redirecting..."
)

// MsgRedirectingTo es el mensaje previo a ir al proveedor ("Redirecting to LINE...").
func MsgRedirectingTo(displayName string) string {
	return "Redirecting to " + displayName + "..."
}

// html/template escapa target según contexto: atributo, JS y texto.
var redirectTpl = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="0;url={{.Target}}">
<title>{{.Message}}</title>
</head>
<body>
<p>{{.Message}}</p>
<p><a href="{{.Target}}">Continue</a></p>
<script>window.location.replace({{.Target}});</script>
</body>
</html>
`))

type redirectPage struct {
	Target  string
	Message string
}

// StandardRedirect responde 302 sin cache.
func StandardRedirect(w http.ResponseWriter, target string) {
	h := w.Header()
	h.Set("Location", target)
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusFound)
}

// HTMLRedirect responde 200 con una página que navega a target por meta
// refresh, script y un link manual.
func HTMLRedirect(w http.ResponseWriter, target, message string) {
	var buf bytes.Buffer
	if err := redirectTpl.Execute(&buf, redirectPage{Target: target, Message: message}); err != nil {
		// no debería pasar; degradar a 302
		StandardRedirect(w, target)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Redirect elige el renderer. incompatible viene de IsRedirectIncompatible.
func Redirect(w http.ResponseWriter, target, message string, incompatible bool) {
	if incompatible {
		HTMLRedirect(w, target, message)
		return
	}
	StandardRedirect(w, target)
}
