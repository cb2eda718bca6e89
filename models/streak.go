package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Streak types tracked by the engine
const (
	StreakDailyLog  = "daily_log"
	StreakWaterGoal = "water_goal"
)

// NutritionStreak is a per (user, streak_type) counter. LongestStreak >= CurrentStreak.
type NutritionStreak struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string     `gorm:"uniqueIndex:idx_user_streak_type;not null" json:"user_id"`
	StreakType      string     `gorm:"uniqueIndex:idx_user_streak_type;type:varchar(32);not null" json:"streak_type"`
	CurrentStreak   int        `gorm:"default:0" json:"current_streak"`
	LongestStreak   int        `gorm:"default:0" json:"longest_streak"`
	LastTrackedDate *time.Time `json:"last_tracked_date,omitempty"`
	Timestamps
}

func (s *NutritionStreak) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
