package helpers

import (
	"net/http"

	"github.com/go-chi/render"
)

// maxJSONBody limita el body de los endpoints JSON.
const maxJSONBody = 1 << 20

// ReadJSON decodifica el body JSON en v. El body se limita a 1MB.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()
	return render.DecodeJSON(r.Body, v)
}

// WriteJSON escribe v como JSON con el status indicado.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
