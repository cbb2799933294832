package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxErrorLen caps notifications.last_error.
const maxErrorLen = 1000

// Repository is the notifications table. Producers only Insert; the relay
// and the retention job own the rest.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, row *models.Notification) error
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.Notification, error)
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return gormRepository{db: db}
}

func (r gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return gormRepository{db: tx}
}

func (r gormRepository) Insert(ctx context.Context, row *models.Notification) error {
	if row == nil {
		return errors.New("insert notification: nil row")
	}
	res := r.db.WithContext(ctx).Create(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("insert notification: %d rows affected", res.RowsAffected)
	}
	return nil
}

func pending(maxAttempts int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("published_at IS NULL")
		if maxAttempts > 0 {
			db = db.Where("attempt_count < ?", maxAttempts)
		}
		return db
	}
}

// FetchUnpublished returns up to limit pending rows, oldest first. Inside a
// transaction the rows stay locked until commit and rows locked by another
// relay are skipped.
func (r gormRepository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Scopes(pending(maxAttempts)).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Order("created_at, id").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r gormRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.bump(ctx, id, map[string]any{"published_at": at, "last_error": nil})
}

func (r gormRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen]
		for !utf8.ValidString(msg) {
			msg = msg[:len(msg)-1]
		}
	}
	return r.bump(ctx, id, map[string]any{"last_error": msg})
}

// bump applies fields and counts one more delivery attempt.
func (r gormRepository) bump(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["attempt_count"] = gorm.Expr("attempt_count + 1")
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r gormRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
