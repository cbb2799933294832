package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/galatadergisi/galata-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// Ids from the load balancer are reused only when they are short and plain,
// so a client cannot inject arbitrary text into log lines.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID tags the request context with an id and echoes it back.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if !requestIDPattern.MatchString(id) {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
