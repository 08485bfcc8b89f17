package httpmiddleware

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// RateLimit rejects requests below _prefix_ with 429 once the limiter returned
// by _current_ runs dry. The limiter is looked up on every request so it can
// be swapped while the server runs.
func RateLimit(h http.Handler, prefix string, current func() *rate.Limiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, prefix) {
			if l := current(); l != nil && !l.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"too many requests"}`))
				return
			}
		}
		h.ServeHTTP(w, r)
	})
}
