package database

import (
	"fmt"

	"gorm.io/gorm"

	"propintel/server/internal/models"
)

// MigrateSchema creates or updates the tables the intelligence engine uses.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Project{},
		&models.Property{},
		&models.PointOfInterest{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Peer lookups by project filter on price and size as well
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_project_peers
		ON properties(project_id, price, size);
	`).Error; err != nil {
		return fmt.Errorf("failed to create project peer index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude);
	`).Error; err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	return nil
}

func (d *Database) RunMigrations() error {
	return MigrateSchema(d.db)
}
