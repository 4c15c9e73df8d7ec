package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"model-lens/services/catalog-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.SyncOperation{},
		&entities.ModelSnapshot{},
		&entities.SavedFilter{},
		&entities.FilterRun{},
	); err != nil {
		return err
	}
	log.Info().Msg("applied catalog migrations")
	return nil
}
