package database

import (
	"fmt"

	"gorm.io/gorm"

	"learnly/internal/models"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.StudySet{},
		&models.LegacyStudySet{},
		&models.HistoryEntry{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
