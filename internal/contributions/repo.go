package contributions

import (
	"context"
	"errors"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists contributions and their Drive sync state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, row *models.Contribution) error
	FindByID(ctx context.Context, id uint64) (models.Contribution, error)
	ListPending(ctx context.Context) ([]models.Contribution, error)
	MarkUploaded(ctx context.Context, id uint64, remoteID, remoteLink string, now time.Time) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a contributions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Insert(ctx context.Context, row *models.Contribution) error {
	if row == nil {
		return errors.New("contribution row required")
	}
	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return errors.New("contribution insert did not affect exactly one row")
	}
	return nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint64) (models.Contribution, error) {
	var row models.Contribution
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	return row, err
}

func pending(db *gorm.DB) *gorm.DB {
	return db.Where("is_uploaded = ? AND file_name IS NOT NULL", false)
}

// ListPending returns contributions with a file that has not reached Drive yet,
// oldest first.
func (r *repositoryImpl) ListPending(ctx context.Context) ([]models.Contribution, error) {
	var rows []models.Contribution
	err := pending(r.db.WithContext(ctx)).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := pending(r.db.WithContext(ctx).Model(&models.Contribution{})).Count(&count).Error
	return count, err
}

// MarkUploaded flips is_uploaded and records the Drive file. The update only
// applies to pending rows with a file, so a second call or a fileless row
// affects zero rows.
func (r *repositoryImpl) MarkUploaded(ctx context.Context, id uint64, remoteID, remoteLink string, now time.Time) (int64, error) {
	result := pending(r.db.WithContext(ctx).Model(&models.Contribution{})).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_uploaded": true,
			"remote_id":   remoteID,
			"remote_link": remoteLink,
			"uploaded_at": now,
		})
	return result.RowsAffected, result.Error
}
