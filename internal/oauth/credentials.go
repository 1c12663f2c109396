package oauth

import "strings"

var placeholderPrefixes = []string{"your-", "your_", "changeme", "change-me", "placeholder", "xxx", "<"}

// IsPlaceholder indica si la credencial está vacía o es un valor de plantilla.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}

// Credentials es el registro del cliente en un provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Valid indica si client id y secret son usables.
func (c Credentials) Valid() bool {
	return !IsPlaceholder(c.ClientID) && !IsPlaceholder(c.ClientSecret)
}
