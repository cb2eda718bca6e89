package store

import (
	"context"
	"fmt"
	"log"

	"wellness-progression/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadLevelTable reads the levels table. When the table is unreachable, empty or
// invalid the fallback is returned so the engine keeps working.
func LoadLevelTable(ctx context.Context, db *gorm.DB, fallback models.LevelTable) models.LevelTable {
	var rows []models.LevelRow
	if err := db.WithContext(ctx).Order("level ASC").Find(&rows).Error; err != nil {
		log.Printf("⚠️  [STORE] Could not read levels table, using fallback: %v", err)
		return fallback
	}
	if len(rows) == 0 {
		return fallback
	}

	levels := make([]models.Level, len(rows))
	for i, r := range rows {
		levels[i] = r.ToLevel()
	}
	table, err := models.NewLevelTable(levels)
	if err != nil {
		log.Printf("⚠️  [STORE] Levels table is invalid, using fallback: %v", err)
		return fallback
	}
	return table
}

// SaveLevelTable replaces the persisted tiers with table.
func SaveLevelTable(ctx context.Context, db *gorm.DB, table models.LevelTable) error {
	levels := table.Levels()
	rows := make([]models.LevelRow, len(levels))
	for i, l := range levels {
		rows[i] = models.LevelRowFrom(l)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("level > ?", table.MaxLevel()).Delete(&models.LevelRow{}).Error; err != nil {
			return fmt.Errorf("failed to trim levels: %w", err)
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "level"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_points", "max_points", "title"}),
		}).Create(&rows).Error
	})
}
