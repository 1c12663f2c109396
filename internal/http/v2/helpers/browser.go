// Package helpers contiene funciones auxiliares compartidas por controllers v2.
package helpers

import "regexp"

var (
	mobileUA = regexp.MustCompile(`iPhone|iPad|iPod|Android`)
	safariUA = regexp.MustCompile(`Safari`)
	chromeUA = regexp.MustCompile(`Chrome|CriOS`)
)

// IsRedirectIncompatible indica si el user agent parece Safari móvil (o una
// PWA instalada sobre él), que puede perder cookies o state con un 302
// directo a otro sitio.
func IsRedirectIncompatible(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	return mobileUA.MatchString(userAgent) &&
		safariUA.MatchString(userAgent) &&
		!chromeUA.MatchString(userAgent)
}
