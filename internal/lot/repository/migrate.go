package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/rfid-textile/internal/lot/domain"
)

// Models lists every table owned or read by the lots service
func Models() []interface{} {
	return []interface{}{
		&domain.Lot{},
		&domain.LotSequence{},
		&domain.Garment{},
		&domain.QualityControl{},
		&domain.LotHistory{},
		&domain.GarmentHistory{},
		&domain.Worker{},
		&domain.User{},
	}
}

// AutoMigrate creates the tables and seeds the lot id sequence
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	seq := domain.LotSequence{Name: domain.LotSequenceName}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return fmt.Errorf("failed to seed lot sequence: %w", err)
	}
	return nil
}
