package controllers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/galatadergisi/galata-backend/api/responses"
	"github.com/galatadergisi/galata-backend/internal/magazines"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
)

const internalErrorPage = "<h1>Internal Server Error</h1>"

type magazinesResponse struct {
	Success   bool                `json:"success"`
	Magazines []magazines.Summary `json:"magazines"`
}

type pagesResponse struct {
	Success bool           `json:"success"`
	Pages   map[int]string `json:"pages"`
}

// IndexSource yields the single-page app shell.
type IndexSource interface {
	Get() ([]byte, error)
}

func ListMagazines(svc magazines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteFailure(r.Context(), logg, w, http.StatusOK, err, responses.GenericFailureMessage)
			return
		}
		if list == nil {
			list = []magazines.Summary{}
		}
		responses.WriteJSON(w, http.StatusOK, magazinesResponse{Success: true, Magazines: list})
	}
}

func MagazinePages(svc magazines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
		if err != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid magazine index")
			responses.WriteFailure(r.Context(), logg, w, http.StatusOK, err, responses.GenericFailureMessage)
			return
		}

		pages, err := svc.Pages(r.Context(), index)
		if err != nil {
			responses.WriteFailure(r.Context(), logg, w, http.StatusOK, err, responses.GenericFailureMessage)
			return
		}
		if pages == nil {
			pages = map[int]string{}
		}
		responses.WriteJSON(w, http.StatusOK, pagesResponse{Success: true, Pages: pages})
	}
}

// IssueIndex serves the app shell for /dergiler deep links so the client
// router can open the requested issue and page.
func IssueIndex(index IndexSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := index.Get()
		if err != nil {
			if logg != nil {
				logg.Error(r.Context(), "index.read_failed", err)
			}
			w.Header().Set("Content-Type", "text/html; charset=UTF-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(internalErrorPage))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		_, _ = w.Write(content)
	}
}

// MagazineAudio serves issue audio from the static tree. Mounted in
// development only.
func MagazineAudio(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index := filepath.Base(chi.URLParam(r, "index"))
		file := filepath.Base(chi.URLParam(r, "file"))
		if _, err := strconv.ParseUint(index, 10, 64); err != nil || file == "." || file == string(filepath.Separator) {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "audio", index, file))
	}
}
