// Package oauth contiene los DTOs JSON de las rutas /oauth.
package oauth

import (
	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	"github.com/dropDatabas3/loyaltyauth/internal/oauthstate"
)

// MeResponse es la respuesta de GET /oauth/me.
type MeResponse struct {
	Success bool           `json:"success"`
	User    *identity.User `json:"user"`
}

// StateHealthResponse es la respuesta de GET /oauth/state/health.
type StateHealthResponse struct {
	Success bool              `json:"success"`
	Healthy bool              `json:"healthy"`
	Stats   *oauthstate.Stats `json:"stats,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// CleanupResponse es la respuesta de POST /oauth/state/cleanup.
type CleanupResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deletedCount"`
	Error        string `json:"error,omitempty"`
}

// LinkRequest es el body de POST /oauth/link/{provider}.
type LinkRequest struct {
	Code string `json:"code"`
}

// LinkResponse es la respuesta exitosa de la vinculación.
type LinkResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    *identity.User `json:"user,omitempty"`
}
