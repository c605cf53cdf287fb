package db

import (
	"fmt"

	"github.com/uclergnlts/tav-egitim/internal/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return backfillSearchKeys(db)
}

// backfillSearchKeys fills search keys of rows written before the column
// existed. Saving a row runs its BeforeSave hook, which sets the key.
func backfillSearchKeys(db *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"personnel", backfill[models.Personnel]},
		{"users", backfill[models.User]},
		{"trainings", backfill[models.Training]},
		{"trainers", backfill[models.Trainer]},
		{"attendance", backfill[models.Attendance]},
	}
	for _, s := range steps {
		if err := s.fn(db); err != nil {
			return fmt.Errorf("backfill %s search keys: %w", s.name, err)
		}
	}
	return nil
}

func backfill[T any](db *gorm.DB) error {
	var rows []T
	return db.Where("search_key = ? OR search_key IS NULL", "").
		FindInBatches(&rows, 500, func(*gorm.DB, int) error {
			for i := range rows {
				if err := db.Save(&rows[i]).Error; err != nil {
					return err
				}
			}
			return nil
		}).Error
}
