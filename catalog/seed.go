package catalog

import (
	"context"
	"fmt"
	"log"

	"wellness-progression/models"
	"wellness-progression/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SeedReport struct {
	Levels       int `json:"levels"`
	Achievements int `json:"achievements"`
	Badges       int `json:"badges"`
	Benefits     int `json:"benefits"`
	Challenges   int `json:"challenges"`
}

// Seed upserts the catalog by code in one transaction. Rows not in the catalog are
// left alone, so user rows that point at them stay valid.
func Seed(ctx context.Context, db *gorm.DB, c *Catalog) (SeedReport, error) {
	var report SeedReport

	table, err := c.LevelTable()
	if err != nil {
		return report, fmt.Errorf("invalid level table: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := store.SaveLevelTable(ctx, tx, table); err != nil {
			return err
		}
		report.Levels = len(table.Levels())

		for _, e := range c.Achievements {
			a, err := e.Model()
			if err != nil {
				return err
			}
			if err := upsertByCode(tx, &a, "name", "description", "category", "points", "icon", "requirements"); err != nil {
				return fmt.Errorf("achievement %s: %w", a.Code, err)
			}
			report.Achievements++
		}

		for _, e := range c.Badges {
			b, err := e.Model()
			if err != nil {
				return err
			}
			if err := upsertByCode(tx, &b, "name", "description", "icon_url", "rarity", "category", "points", "requirement_count"); err != nil {
				return fmt.Errorf("badge %s: %w", b.Code, err)
			}
			report.Badges++
		}

		for _, e := range c.Benefits {
			b, err := e.Model()
			if err != nil {
				return err
			}
			if err := upsertByCode(tx, &b, "name", "description", "level_required", "benefit_type", "benefit_data"); err != nil {
				return fmt.Errorf("benefit %s: %w", b.Code, err)
			}
			// is_active has a column default, so false must be written explicitly
			if err := tx.Model(&models.LevelBenefit{}).Where("code = ?", b.Code).Update("is_active", b.IsActive).Error; err != nil {
				return err
			}
			report.Benefits++
		}

		for _, e := range c.Challenges {
			ch, err := e.Model()
			if err != nil {
				return err
			}
			if err := upsertByCode(tx, &ch, "title", "description", "points", "difficulty", "category", "requirements", "duration_days"); err != nil {
				return fmt.Errorf("challenge %s: %w", ch.Code, err)
			}
			if err := tx.Model(&models.Challenge{}).Where("code = ?", ch.Code).Update("is_active", ch.IsActive).Error; err != nil {
				return err
			}
			report.Challenges++
		}
		return nil
	})
	if err != nil {
		return SeedReport{}, fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Printf("🌱 [CATALOG] Seeded %d levels, %d achievements, %d badges, %d benefits, %d challenges",
		report.Levels, report.Achievements, report.Badges, report.Benefits, report.Challenges)
	return report, nil
}

func upsertByCode(tx *gorm.DB, row interface{}, columns ...string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(row).Error
}
