package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/logger"
)

// RetentionJobName is the job name and lock name of the notification sweeper.
const RetentionJobName = "notification-retention"

const defaultRetention = 30 * 24 * time.Hour

type publishedSweeper interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob deletes notifications the relay published longer ago than the
// retention window. Rows that were never published stay.
type RetentionJob struct {
	logg   *logger.Logger
	store  publishedSweeper
	window time.Duration
	now    func() time.Time
}

// NewRetentionJob keeps days of published notifications; days <= 0 means 30.
func NewRetentionJob(logg *logger.Logger, store publishedSweeper, days int) (*RetentionJob, error) {
	if logg == nil || store == nil {
		return nil, errors.New("retention job: logger and store required")
	}
	window := defaultRetention
	if days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}
	return &RetentionJob{logg: logg, store: store, window: window, now: time.Now}, nil
}

func (j *RetentionJob) Name() string { return RetentionJobName }

func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	n, err := j.store.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete notifications published before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{"cutoff": cutoff, "deleted": n}), "retention.swept")
	}
	return nil
}
