package db

import (
	"fmt"

	types "github.com/yungbote/project-radar/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// Both postgres and sqlite support partial indexes with this syntax.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_radar_edition_single_live
		ON radar_edition (status)
		WHERE status = 'live';
	`).Error; err != nil {
		return fmt.Errorf("create single-live index: %w", err)
	}
	return nil
}
