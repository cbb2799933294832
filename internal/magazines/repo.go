package magazines

import (
	"context"
	"time"

	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads published issues and their pages.
type Repository interface {
	ListPublished(ctx context.Context, now time.Time) ([]models.Magazine, error)
	ListPages(ctx context.Context, index uint64, now time.Time) ([]models.Page, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func published(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("visible = ? AND publish_date < ?", true, now)
}

func (r *repositoryImpl) ListPublished(ctx context.Context, now time.Time) ([]models.Magazine, error) {
	var rows []models.Magazine
	err := published(r.db.WithContext(ctx), now).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListPages returns the pages of a published issue. Hidden or future issues
// yield no pages.
func (r *repositoryImpl) ListPages(ctx context.Context, index uint64, now time.Time) ([]models.Page, error) {
	visible := published(r.db.Model(&models.Magazine{}).Select("id"), now).Where("id = ?", index)
	var rows []models.Page
	err := r.db.WithContext(ctx).
		Where("magazine_index = ? AND magazine_index IN (?)", index, visible).
		Order("page_number ASC").
		Find(&rows).Error
	return rows, err
}
