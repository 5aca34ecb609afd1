package db

import (
	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the venue store.
func Models() []interface{} {
	return []interface{}{
		&model.Venue{},
		&model.Room{},
		&model.ControlRoom{},
		&model.Station{},
	}
}

// MigrateDB runs database migrations on db.
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...", nil)

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
