package middleware

import (
	"net/http"

	"github.com/bryanwahyu/aeo-tracker/internal/metrics"
)

// Metrics tracks request counters
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.IncrementRequests()
		metrics.IncrementInProgress()
		defer metrics.DecrementInProgress()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			metrics.IncrementSuccess()
		} else {
			metrics.IncrementFailed()
		}
	})
}
