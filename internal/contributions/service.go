package contributions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/galatadergisi/galata-backend/internal/notifications"
	"github.com/galatadergisi/galata-backend/internal/uploads"
	"github.com/galatadergisi/galata-backend/pkg/db/models"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/metrics"
	"github.com/galatadergisi/galata-backend/pkg/recaptcha"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Verifier checks an anti-spam token.
type Verifier interface {
	Verify(ctx context.Context, secret, token, remoteIP string) error
}

// FileRemover deletes stored uploads that end up unused.
type FileRemover interface {
	Remove(name string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the ingestion service.
type ServiceParams struct {
	Repo     Repository
	Queue    notifications.Queue
	Settings notifications.SettingsReader
	Verifier Verifier
	Files    FileRemover
	Tx       txRunner
	Logger   *logger.Logger
	Metrics  *metrics.SubmissionMetrics
}

// Service accepts contribution form submissions.
type Service interface {
	Submit(ctx context.Context, sub Submission, file *uploads.StoredFile) (models.Contribution, error)
}

type service struct {
	repo     Repository
	queue    notifications.Queue
	settings notifications.SettingsReader
	verifier Verifier
	files    FileRemover
	tx       txRunner
	logg     *logger.Logger
	metrics  *metrics.SubmissionMetrics
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "contribution repository required")
	case params.Queue == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification queue required")
	case params.Settings == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings reader required")
	case params.Verifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "captcha verifier required")
	case params.Files == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "file remover required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		queue:    params.Queue,
		settings: params.Settings,
		verifier: params.Verifier,
		files:    params.Files,
		tx:       params.Tx,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Submit validates the submission, verifies the captcha and records the
// contribution. Submissions without a file are announced right away; the
// others are announced by the sync worker once the file reaches Drive. The
// stored file is removed whenever the submission is not recorded.
func (s *service) Submit(ctx context.Context, sub Submission, file *uploads.StoredFile) (row models.Contribution, err error) {
	hasFile := file != nil && file.Name != ""
	defer func() {
		s.metrics.Inc(resultLabel(err), hasFile)
		if err != nil && hasFile {
			err = multierr.Append(err, s.files.Remove(file.Name))
		}
	}()

	sub = sub.Normalize()
	if err := Validate(sub); err != nil {
		return models.Contribution{}, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.Contribution{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settings")
	}
	if err := s.verifyCaptcha(ctx, settings.RecaptchaSecret, sub); err != nil {
		return models.Contribution{}, err
	}

	row = newContribution(sub, file, s.now().UTC())
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert contribution")
		}
		if hasFile {
			return nil
		}
		return s.queue.WithTx(tx).Enqueue(ctx, notifications.ContributionMessage(settings, row))
	})
	if err != nil {
		return models.Contribution{}, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithContributionID(ctx, row.ID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{"type": row.Type, "has_file": hasFile})
		s.logg.Info(logCtx, "contribution accepted")
	}
	return row, nil
}

func (s *service) verifyCaptcha(ctx context.Context, secret string, sub Submission) error {
	if strings.TrimSpace(secret) == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "recaptcha secret is not configured")
	}
	err := s.verifier.Verify(ctx, secret, sub.CaptchaToken, sub.RemoteIP)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, recaptcha.ErrVerificationFailed):
		return pkgerrors.Wrap(pkgerrors.CodeVerification, err, msgCaptcha)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify captcha")
	}
}

func newContribution(sub Submission, file *uploads.StoredFile, now time.Time) models.Contribution {
	row := models.Contribution{
		Contributor:      sub.Name,
		ContributorEmail: sub.Email,
		Title:            sub.Title,
		Type:             sub.AssetType,
		VideoLink:        optional(sub.VideoLink),
		Message:          optional(sub.Message),
		CreatedAt:        now,
	}
	if file != nil && file.Name != "" {
		name := file.Name
		row.FileName = &name
	}
	return row
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation), pkgerrors.IsCode(err, pkgerrors.CodeVerification):
		return "rejected"
	default:
		return "failed"
	}
}
