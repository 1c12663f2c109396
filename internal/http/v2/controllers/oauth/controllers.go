// Package oauth contiene los controllers HTTP del login federado.
package oauth

import (
	svc "github.com/dropDatabas3/loyaltyauth/internal/http/v2/services/oauth"
)

// Controllers agrupa los controllers del dominio oauth.
type Controllers struct {
	Start    *StartController
	Callback *CallbackController
	Me       *MeController
	State    *StateController
	Link     *LinkController
}

// NewControllers crea el agregador de controllers oauth.
// frontendURL es el destino de los errores de inicio.
func NewControllers(s svc.Services, frontendURL string) *Controllers {
	return &Controllers{
		Start:    NewStartController(s.Start, frontendURL),
		Callback: NewCallbackController(s.Callback),
		Me:       NewMeController(s.Me),
		State:    NewStateController(s.State),
		Link:     NewLinkController(s.Link),
	}
}
