package migrate

import (
	"context"
	"fmt"

	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db"
	"github.com/galatadergisi/galata-backend/pkg/db/models"
	"github.com/galatadergisi/galata-backend/pkg/logger"
)

// MaybeRunDev brings the dev database up to date when GALATA_AUTO_MIGRATE is
// set. Postgres gets the embedded goose migrations; sqlite has no goose
// dialect here, so its tables come from the models.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.Driver == config.DBDriverSQLite {
		logg.Info(ctx, "migrate.models")
		return AutoMigrateModels(client)
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	m, err := New(sqlDB, "")
	if err != nil {
		return err
	}
	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", applied), "migrate.up")
	return nil
}

// AutoMigrateModels creates every table from its gorm model and seeds the
// settings row.
func AutoMigrateModels(client *db.Client) error {
	conn := client.DB()
	if err := conn.AutoMigrate(
		&models.Contribution{},
		&models.Settings{},
		&models.Notification{},
		&models.Magazine{},
		&models.Page{},
	); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return conn.FirstOrCreate(&models.Settings{ID: models.SettingsRowID}).Error
}
