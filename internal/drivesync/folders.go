package drivesync

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/metrics"
	"github.com/galatadergisi/galata-backend/pkg/storage/gdrive"
)

var monthNames = [...]string{
	time.January:   "Ocak",
	time.February:  "Şubat",
	time.March:     "Mart",
	time.April:     "Nisan",
	time.May:       "Mayıs",
	time.June:      "Haziran",
	time.July:      "Temmuz",
	time.August:    "Ağustos",
	time.September: "Eylül",
	time.October:   "Ekim",
	time.November:  "Kasım",
	time.December:  "Aralık",
}

// MonthName returns the Turkish name used for month folders.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m]
}

type folderAPI interface {
	FindFolders(ctx context.Context, name, parentID string) ([]gdrive.Folder, error)
	CreateFolder(ctx context.Context, name, parentID string) (gdrive.Folder, error)
}

// Resolver finds or creates the root/year/month folder chain. Nothing is
// cached; every call asks Drive.
type Resolver struct {
	drive   folderAPI
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
}

func NewResolver(drive folderAPI, logg *logger.Logger, m *metrics.SyncMetrics) *Resolver {
	return &Resolver{drive: drive, logg: logg, metrics: m}
}

// Resolve returns the id of rootID/year/month, creating the year and month
// folders when they are missing.
func (r *Resolver) Resolve(ctx context.Context, rootID string, year int, month time.Month) (string, error) {
	if rootID == "" {
		return "", errors.New("drive root folder is not configured")
	}
	yearID, err := r.ensure(ctx, rootID, strconv.Itoa(year))
	if err != nil {
		return "", err
	}
	monthName := MonthName(month)
	if monthName == "" {
		return "", errors.New("invalid month " + strconv.Itoa(int(month)))
	}
	return r.ensure(ctx, yearID, monthName)
}

func (r *Resolver) ensure(ctx context.Context, parentID, name string) (string, error) {
	found, err := r.drive.FindFolders(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if len(found) > 1 {
		r.flagDuplicates(ctx, parentID, name, found)
	}
	if len(found) > 0 {
		return found[0].ID, nil
	}

	created, err := r.drive.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if r.logg != nil {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{
			"folder":    name,
			"folder_id": created.ID,
			"parent_id": parentID,
		}), "drive folder created")
	}
	return created.ID, nil
}

// Duplicates are still resolved to the first match but made visible.
func (r *Resolver) flagDuplicates(ctx context.Context, parentID, name string, found []gdrive.Folder) {
	r.metrics.IncFolderDuplicate()
	if r.logg == nil {
		return
	}
	ids := make([]string, 0, len(found))
	for _, f := range found {
		ids = append(ids, f.ID)
	}
	r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
		"folder":     name,
		"parent_id":  parentID,
		"folder_ids": ids,
		"chosen_id":  found[0].ID,
	}), "multiple drive folders share the same name")
}
