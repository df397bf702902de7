package shortcode

import "strings"

// reserved holds path segments served by something other than the redirect route,
// either by this service or by the web client in front of it.
var reserved = map[string]struct{}{
	// Client pages.
	"analytics": {},
	"dashboard": {},
	"stats":     {},
	"api":       {},
	"not-found": {},

	// Service routes.
	"shorten":  {},
	"check":    {},
	"urls":     {},
	"qr":       {},
	"ping":     {},
	"redirect": {},
	"docs":     {},
	"swagger":  {},

	"admin":   {},
	"health":  {},
	"metrics": {},
	"static":  {},
	"assets":  {},
}

// IsReserved reports whether code collides with a reserved route. Comparison is case-insensitive.
func IsReserved(code string) bool {
	_, ok := reserved[strings.ToLower(code)]
	return ok
}
