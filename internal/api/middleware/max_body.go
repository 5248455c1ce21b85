package middleware

import (
	"net/http"

	"github.com/kontext-dev/kontext/internal/api"
)

// MaxBodyBytes caps the request body size. Session notes are a few KB at
// most; anything over the cap is almost certainly a mispasted file, so it
// is rejected before the JSON decoder reads it.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				if r.ContentLength != -1 && r.ContentLength > limit {
					api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
