package middleware

import (
	"net/http"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/metrics"
)

// Metrics records request counts and latency keyed by the matched route
// pattern, so /magazines/{index} is one series.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := wrap(w, r)
			start := time.Now()
			next.ServeHTTP(ww, r)
			m.Observe(r.Method, routeOf(r), statusOf(ww), time.Since(start))
		})
	}
}
