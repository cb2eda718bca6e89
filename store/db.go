package store

import (
	"fmt"
	"log"
	"time"

	"wellness-progression/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the data service. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		// SQLite compares timestamps as text, so every auto time is written in UTC
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AllModels lists every table the engine owns, catalog tables first.
func AllModels() []interface{} {
	return []interface{}{
		&models.LevelRow{},
		&models.Challenge{},
		&models.Achievement{},
		&models.Badge{},
		&models.LevelBenefit{},
		&models.UserPoints{},
		&models.PointsTransaction{},
		&models.UserChallenge{},
		&models.UserAchievement{},
		&models.UserBadge{},
		&models.UserLevelBenefit{},
		&models.NutritionStreak{},
		&models.NutritionLog{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Printf("✅ [STORE] Migrated %d tables", len(AllModels()))
	return nil
}
