// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"regexp"
	"strings"
)

// ArangoDB document keys: letters, digits and a limited punctuation set, at most 254 bytes.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9_\-:.@()+,=;$!*'%]{1,254}$`)

// SanitizeKey trims surrounding whitespace from a document key taken from a URL
func SanitizeKey(key string) string {
	return strings.TrimSpace(key)
}

// IsValidKey reports whether key can be used as an ArangoDB _key.
// Callers use it to reject malformed ids before they reach a query.
func IsValidKey(key string) bool {
	return validKey.MatchString(key)
}
