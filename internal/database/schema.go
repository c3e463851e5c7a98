package database

import (
	"fmt"

	"civichub/internal/middleware"
	"civichub/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models,
// ordered so that referenced tables are created first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Issue{},
		&models.Comment{},
		&models.Booking{},
	}
}

// Migrate creates or extends the tables for PersistentModels.
// AutoMigrate only adds tables, columns, indexes and constraints; it never drops data.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	middleware.Logger.Info("Database migration completed")
	return nil
}
