package settings

import (
	"context"

	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the settings row and persists rotated Drive refresh tokens.
type Repository interface {
	Get(ctx context.Context) (models.Settings, error)
	UpdateRefreshToken(ctx context.Context, token string) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Get(ctx context.Context) (models.Settings, error) {
	var row models.Settings
	err := r.db.WithContext(ctx).
		Where("id = ?", models.SettingsRowID).
		Take(&row).Error
	return row, err
}

// UpdateRefreshToken overwrites the stored refresh token and reports how many
// rows changed.
func (r *repositoryImpl) UpdateRefreshToken(ctx context.Context, token string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("id = ?", models.SettingsRowID).
		UpdateColumn("drive_refresh_token", token)
	return result.RowsAffected, result.Error
}
