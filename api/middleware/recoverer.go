package middleware

import (
	"fmt"
	"net/http"

	"github.com/galatadergisi/galata-backend/api/responses"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
)

// Recoverer turns a handler panic into a logged internal error and a 500
// envelope. http.ErrAbortHandler keeps its meaning and is re-raised.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := pkgerrors.Wrap(pkgerrors.CodeInternal, fmt.Errorf("%v", rec), "handler panic").
					WithDetails(map[string]any{"step": "panic", "path": r.URL.Path})
				responses.WriteFailure(r.Context(), logg, w, http.StatusInternalServerError, err, pkgerrors.ServerErrorMessage)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
