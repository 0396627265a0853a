package middleware

import (
	"net/http"
	"sync/atomic"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Metrics counts requests and 4xx/5xx responses into the given counters.
// The /metrics endpoint reads them back out.
func Metrics(requests, errors *atomic.Int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= 400 {
				errors.Add(1)
			}
		})
	}
}
