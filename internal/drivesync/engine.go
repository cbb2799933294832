package drivesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/galatadergisi/galata-backend/internal/credentials"
	"github.com/galatadergisi/galata-backend/internal/notifications"
	"github.com/galatadergisi/galata-backend/pkg/db/models"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/metrics"
	"github.com/galatadergisi/galata-backend/pkg/storage/gdrive"
)

// JobName identifies the engine in the cron registry, logs and metrics.
const JobName = "drive-sync"

// Drive rejects properties whose key and value exceed 124 bytes together.
const maxPropertyBytes = 124

// Error notification titles.
const (
	TitleFileMissing  = "File doesn't exist on the server"
	TitleFileSystem   = "File System Error!!!"
	TitleUploadFailed = "Google Drive Upload Failed!"
	TitleSaveFailed   = "Failed to Save Google Drive Data to Database!"
	TitleNotifyFailed = "Failed to Add Contribution Notification to the Queue"
)

// Outcome is the result of processing one pending contribution.
type Outcome int

const (
	// OutcomeUploaded means the file reached Drive and the row was updated.
	OutcomeUploaded Outcome = iota
	// OutcomeSkipped leaves the row pending and moves on to the next one.
	OutcomeSkipped
	// OutcomeAborted leaves the row pending and defers the rest of the tick.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type contributionStore interface {
	ListPending(ctx context.Context) ([]models.Contribution, error)
	MarkUploaded(ctx context.Context, id uint64, remoteID, remoteLink string, now time.Time) (int64, error)
	FindByID(ctx context.Context, id uint64) (models.Contribution, error)
}

type tokenRefresher interface {
	Refresh(ctx context.Context) (credentials.Refresh, error)
	Persist(ctx context.Context, refreshToken string)
}

type folderResolver interface {
	Resolve(ctx context.Context, rootID string, year int, month time.Month) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, in gdrive.UploadInput) (gdrive.UploadedFile, error)
}

// EngineParams groups dependencies for the sync engine.
type EngineParams struct {
	Contributions contributionStore
	Credentials   tokenRefresher
	Resolver      folderResolver
	Drive         uploader
	Queue         notifications.Queue
	Settings      notifications.SettingsReader
	UploadDir     string
	Location      *time.Location
	Logger        *logger.Logger
	Metrics       *metrics.SyncMetrics
}

// Engine uploads pending contribution files to Drive, one at a time.
type Engine struct {
	contributions contributionStore
	credentials   tokenRefresher
	resolver      folderResolver
	drive         uploader
	queue         notifications.Queue
	settings      notifications.SettingsReader
	composer      *notifications.Composer
	uploadDir     string
	loc           *time.Location
	logg          *logger.Logger
	metrics       *metrics.SyncMetrics
	now           func() time.Time
}

func NewEngine(params EngineParams) (*Engine, error) {
	switch {
	case params.Contributions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "contribution store required")
	case params.Credentials == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "credential manager required")
	case params.Resolver == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "folder resolver required")
	case params.Drive == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "drive client required")
	case params.Queue == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification queue required")
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	case params.UploadDir == "":
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upload directory required")
	}
	composer, err := notifications.NewComposer(params.Settings)
	if err != nil {
		return nil, err
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		contributions: params.Contributions,
		credentials:   params.Credentials,
		resolver:      params.Resolver,
		drive:         params.Drive,
		queue:         params.Queue,
		settings:      params.Settings,
		composer:      composer,
		uploadDir:     params.UploadDir,
		loc:           loc,
		logg:          params.Logger,
		metrics:       params.Metrics,
		now:           time.Now,
	}, nil
}

func (e *Engine) Name() string { return JobName }

// Run performs one tick: every pending contribution is processed in id order
// until one aborts, in which case the rest waits for the next tick.
func (e *Engine) Run(ctx context.Context) error {
	start := time.Now()
	defer func() { e.metrics.ObserveTick(time.Since(start)) }()

	s, err := e.settings.Get(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	pending, err := e.contributions.ListPending(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending contributions")
	}
	e.metrics.SetPending(len(pending))
	e.logg.Info(e.logg.WithField(ctx, "pending", len(pending)), "sync tick")

	for i, item := range pending {
		itemCtx := e.logg.WithContributionID(ctx, item.ID)
		outcome, cause := e.process(itemCtx, s.DriveRootFolder, item)
		e.metrics.IncItem(outcome.String())
		if outcome == OutcomeAborted {
			deferred := len(pending) - i - 1
			e.logg.Warn(e.logg.WithField(itemCtx, "deferred", deferred), "sync tick aborted")
			return fmt.Errorf("sync aborted at contribution %d: %w", item.ID, cause)
		}
	}
	return nil
}

func (e *Engine) process(ctx context.Context, rootID string, item models.Contribution) (Outcome, error) {
	path := item.FilePath(e.uploadDir)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		e.notifyError(ctx, notifications.ErrorNotice{
			Title:          TitleFileMissing,
			Message:        fmt.Sprintf("Asset Id: %d", item.ID),
			Error:          err.Error(),
			ContributionID: item.ID,
		})
		return OutcomeSkipped, err
	case err != nil:
		e.notifyError(ctx, notifications.ErrorNotice{
			Title:          TitleFileSystem,
			Message:        fmt.Sprintf("Asset Id: %d", item.ID),
			Error:          err.Error(),
			ContributionID: item.ID,
		})
		return OutcomeSkipped, err
	case !info.Mode().IsRegular():
		err = fmt.Errorf("%s is not a regular file", path)
		e.notifyError(ctx, notifications.ErrorNotice{
			Title:          TitleFileSystem,
			Message:        fmt.Sprintf("Asset Id: %d", item.ID),
			Error:          err.Error(),
			ContributionID: item.ID,
		})
		return OutcomeSkipped, err
	}

	uploaded, err := e.upload(ctx, rootID, item, path)
	if err != nil {
		notice := notifications.ErrorNotice{
			Title:          TitleUploadFailed,
			Error:          err.Error(),
			ContributionID: item.ID,
		}
		if status, msg, ok := gdrive.APIErrorDetail(err); ok {
			notice.Message = fmt.Sprintf("Error: %d <br />Description: %s", status, msg)
		}
		e.notifyError(ctx, notice)
		return OutcomeAborted, err
	}
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"drive_file_id": uploaded.ID,
		"drive_link":    uploaded.WebViewLink,
	}), "contribution uploaded to drive")

	affected, err := e.contributions.MarkUploaded(ctx, item.ID, uploaded.ID, uploaded.WebViewLink, e.now().UTC())
	if err == nil && affected != 1 {
		err = pkgerrors.New(pkgerrors.CodeConsistency, fmt.Sprintf("marking contribution %d uploaded affected %d rows", item.ID, affected))
	}
	if err != nil {
		e.notifyError(ctx, notifications.ErrorNotice{
			Title:          TitleSaveFailed,
			Error:          err.Error(),
			ContributionID: item.ID,
			Details: map[string]any{
				"remoteId":   uploaded.ID,
				"remoteLink": uploaded.WebViewLink,
			},
		})
		return OutcomeAborted, err
	}

	if err := e.announce(ctx, item.ID); err != nil {
		e.notifyError(ctx, notifications.ErrorNotice{
			Title:          TitleNotifyFailed,
			Error:          err.Error(),
			ContributionID: item.ID,
		})
		return OutcomeAborted, err
	}
	return OutcomeUploaded, nil
}

func (e *Engine) upload(ctx context.Context, rootID string, item models.Contribution, path string) (gdrive.UploadedFile, error) {
	refresh, err := e.credentials.Refresh(ctx)
	if err != nil {
		return gdrive.UploadedFile{}, err
	}
	if refresh.Rotated {
		e.credentials.Persist(ctx, refresh.RefreshToken)
	}

	now := e.now().In(e.loc)
	folderID, err := e.resolver.Resolve(ctx, rootID, now.Year(), now.Month())
	if err != nil {
		return gdrive.UploadedFile{}, fmt.Errorf("resolve drive folder: %w", err)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return gdrive.UploadedFile{}, fmt.Errorf("detect mime type: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return gdrive.UploadedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return e.drive.Upload(ctx, gdrive.UploadInput{
		Name:       DriveFileName(item),
		ParentID:   folderID,
		MimeType:   mtype.String(),
		Properties: DriveProperties(item),
		Body:       f,
	})
}

func (e *Engine) announce(ctx context.Context, id uint64) error {
	row, err := e.contributions.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload contribution: %w", err)
	}
	msg, err := e.composer.Contribution(ctx, row)
	if err != nil {
		return err
	}
	return e.queue.Enqueue(ctx, msg)
}

// notifyError queues an error notice for the admin. A failure here has
// nowhere left to go but the log.
func (e *Engine) notifyError(ctx context.Context, notice notifications.ErrorNotice) {
	errCtx := e.logg.WithFields(ctx, map[string]any{"title": notice.Title, "detail": notice.Error})
	e.logg.Warn(errCtx, "sync error")

	msg, err := e.composer.Error(ctx, notice)
	if err == nil {
		err = e.queue.Enqueue(ctx, msg)
	}
	if err != nil {
		e.logg.Error(errCtx, "failed to queue error notification", err)
	}
}

// DriveFileName is "<title> - <contributor><ext>".
func DriveFileName(c models.Contribution) string {
	ext := ""
	if c.FileName != nil {
		ext = filepath.Ext(*c.FileName)
	}
	return fmt.Sprintf("%s - %s%s", c.Title, c.Contributor, ext)
}

// DriveProperties returns the searchable properties stored with the Drive
// file. Empty values are omitted and long values are cut to fit Drive's limit.
func DriveProperties(c models.Contribution) map[string]string {
	props := map[string]string{}
	add := func(key, value string) {
		if value == "" {
			return
		}
		props[key] = truncateBytes(value, maxPropertyBytes-len(key))
	}
	add("assetId", strconv.FormatUint(c.ID, 10))
	add("contributor", c.Contributor)
	add("contributorEmail", c.ContributorEmail)
	add("title", c.Title)
	add("type", string(c.Type))
	if c.VideoLink != nil {
		add("video", *c.VideoLink)
	}
	if c.FileName != nil {
		add("filename", *c.FileName)
	}
	return props
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
