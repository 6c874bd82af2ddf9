// Package limits guards request body sizes. The portal only accepts small
// JSON payloads; anything bigger is an accident or abuse.
package limits

import "net/http"

// MaxJSONBody is the largest request body any JSON endpoint accepts.
const MaxJSONBody = 1 << 20 // 1 MB

// MaxBody wraps each request body with http.MaxBytesReader so oversized
// payloads fail decoding instead of exhausting memory.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
