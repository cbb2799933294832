package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/galatadergisi/galata-backend/api/middleware"
	"github.com/galatadergisi/galata-backend/api/responses"
	"github.com/galatadergisi/galata-backend/api/validators"
	"github.com/galatadergisi/galata-backend/internal/contributions"
	"github.com/galatadergisi/galata-backend/internal/uploads"
	"github.com/galatadergisi/galata-backend/pkg/enums"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
)

const (
	fileField = "file"
	// formOverheadBytes is the room left for text fields and multipart framing
	// on top of the file limit.
	formOverheadBytes = 1 << 20

	msgMalformedForm = "Form gönderilemedi. Lütfen sayfayı yenileyip tekrar deneyiniz."
)

// FileStore saves and discards uploaded contribution files.
type FileStore interface {
	Save(originalName string, r io.Reader) (uploads.StoredFile, error)
	Remove(name string) error
	MaxBytes() int64
}

// SubmitContribution handles the contribution form. The file part is streamed
// to disk while the form is read; every outcome is answered with HTTP 200 and
// a {success, error} body.
func SubmitContribution(svc contributions.Service, files FileStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || files == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contribution service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, files.MaxBytes()+formOverheadBytes)

		var stored *uploads.StoredFile
		values, err := validators.ReadForm(r, fileField, func(filename string, body io.Reader) error {
			if stored != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, contributions.MsgTooManyFiles)
			}
			saved, err := files.Save(filename, body)
			if err != nil {
				return err
			}
			stored = &saved
			return nil
		})
		if err != nil {
			if stored != nil {
				if rmErr := files.Remove(stored.Name); rmErr != nil && logg != nil {
					logg.Error(logg.WithField(ctx, "file_name", stored.Name), "upload.cleanup_failed", rmErr)
				}
			}
			responses.WriteError(ctx, logg, w, formError(err))
			return
		}

		sub := contributions.Submission{
			Name:         values.Get("name"),
			Email:        values.Get("email"),
			Title:        values.Get("title"),
			AssetType:    enums.ContributionType(values.Get("assetType")),
			VideoLink:    values.Get("videoLink"),
			Message:      values.Get("message"),
			CaptchaToken: values.Get("g-recaptcha-response"),
			RemoteIP:     middleware.ClientIP(r),
		}

		row, err := svc.Submit(ctx, sub, stored)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithContributionID(ctx, row.ID), "contribution.submitted")
		}
		responses.WriteSuccess(w)
	}
}

func formError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, uploads.ErrTooLarge), errors.As(err, &maxErr):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, contributions.MsgFileTooLarge)
	case errors.Is(err, validators.ErrNotForm):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgMalformedForm)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading contribution form")
	}
}
