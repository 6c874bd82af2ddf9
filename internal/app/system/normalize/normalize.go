// Package normalize canonicalizes user-supplied field values before they
// are stored or compared. Keep these helpers tiny and deterministic so
// stores can rely on them for filter equality.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role string. Role routing does exact string
// matching, so everything that touches a role goes through here first.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims an account status.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
