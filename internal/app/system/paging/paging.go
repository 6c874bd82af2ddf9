// Package paging parses list-window parameters for the JSON list endpoints.
// Every list handler goes through Limit so clients cannot request unbounded
// result sets.
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the client does not ask for one.
const DefaultLimit = 50

// MaxLimit caps what a client may request in a single page.
const MaxLimit = 500

// Limit extracts the "limit" query parameter. Missing or invalid values
// fall back to fallback; anything above MaxLimit is clamped.
func Limit(r *http.Request, fallback int64) int64 {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
