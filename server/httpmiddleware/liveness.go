package httpmiddleware

import (
	"log"
	"net/http"
)

func Liveness(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// liveness response
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("OK")); err != nil {
				log.Printf("[liveness] %v", err)
			}
			return
		}
		h.ServeHTTP(w, r)
	})
}
