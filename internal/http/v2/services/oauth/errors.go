package oauth

import (
	"errors"

	idp "github.com/dropDatabas3/loyaltyauth/internal/oauth"
)

var (
	ErrUnknownProvider   = idp.ErrUnknownProvider
	ErrNotConfigured     = idp.ErrNotConfigured
	ErrStateUnavailable  = errors.New("oauth state store unavailable")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyLinked     = errors.New("provider already linked")
	ErrExchange          = errors.New("provider exchange failed")
	ErrMissingCode       = errors.New("code required")
	ErrIncompleteProfile = errors.New("incomplete provider profile")
)

// Códigos de error que viajan al frontend en ?error=.
const (
	CodeProviderError     = "oauth_provider_error"
	CodeInvalid           = "oauth_invalid"
	CodeStateError        = "oauth_error"
	CodeSessionExpired    = "session_expired"
	CodeTokenFailed       = "oauth_token_failed"
	CodeProfileFailed     = "oauth_profile_failed"
	CodeAuthError         = "oauth_auth_error"
	CodeIncomplete        = "oauth_incomplete"
	CodeProcessingFailed  = "oauth_processing_failed"
	CodeNoUser            = "oauth_no_user"
	codeSuccess           = "success"
	notConfiguredSuffix   = "_not_configured"
	loginPath             = "/login"
	successPath           = "/oauth/success"
	defaultPlatform       = "web"
	maxErrorDescriptionLn = 200
)

// NotConfiguredCode arma el código "{provider}_not_configured".
func NotConfiguredCode(provider string) string {
	return provider + notConfiguredSuffix
}
