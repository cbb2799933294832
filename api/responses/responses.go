package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
)

// GenericFailureMessage is the reply for failed magazine reads.
const GenericFailureMessage = "Someting went wrong."

// Result is the envelope every form and JSON endpoint answers with.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func WriteSuccess(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, Result{Success: true})
}

// WriteError answers with {success:false} and the user-facing text for err.
// Form submissions always answer 200 so the page script can show the message;
// only throttled requests keep their own status.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	status := http.StatusOK
	if typed.Code() == pkgerrors.CodeRateLimit {
		status = http.StatusTooManyRequests
	}

	logFailure(ctx, logg, typed)
	WriteJSON(w, status, Result{Error: pkgerrors.PublicMessage(typed)})
}

// WriteFailure logs err and answers with a fixed message instead of the
// error's own public text.
func WriteFailure(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, status int, err error, message string) {
	if err != nil {
		typed := pkgerrors.As(err)
		if typed == nil {
			typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
		}
		logFailure(ctx, logg, typed)
	}
	WriteJSON(w, status, Result{Error: message})
}

func logFailure(ctx context.Context, logg *logger.Logger, err *pkgerrors.Error) {
	if logg == nil {
		return
	}

	switch err.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeVerification, pkgerrors.CodeRateLimit:
		ctx = logg.WithFields(ctx, map[string]any{
			"error":      err.Error(),
			"error_code": err.Code(),
		})
		logg.Info(ctx, "request.rejected")
		return
	}

	fields := pkgerrors.Dump(err).Fields()
	if d, ok := err.Details().(map[string]any); ok {
		for _, key := range []string{"step", "field"} {
			if v, ok := d[key]; ok {
				fields[key] = v
			}
		}
	}

	ctx = logg.WithFields(ctx, fields)
	logg.Error(ctx, "request.error", err)
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
