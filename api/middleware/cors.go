package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/cors"
)

// devOrigins are the local front-end servers allowed in development.
var devOrigins = []string{"http://localhost:3000", "http://localhost:8080"}

// CORS lets the static site and its preview deployments call the API. The
// forms post multipart bodies, so only simple methods are allowed.
func CORS(origins []string, dev bool) func(http.Handler) http.Handler {
	var allowed []string
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" && !slices.Contains(allowed, o) {
			allowed = append(allowed, o)
		}
	}
	if dev {
		allowed = append(allowed, devOrigins...)
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})
}
