package database

import (
	"gorm.io/gorm"

	"github.com/ivevents/ivevents/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Event{},
		&models.EventParticipant{},
		&models.UserPreference{},
	)
}
