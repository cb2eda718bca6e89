package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Achievement: catalog entry with the conditions that unlock it
type Achievement struct {
	ID           string       `gorm:"primaryKey;type:uuid" json:"id"`
	Code         string       `gorm:"uniqueIndex;not null" json:"code"` // e.g., "first-week", "hydration-hero"
	Name         string       `gorm:"not null" json:"name"`
	Description  string       `gorm:"type:text" json:"description"`
	Category     string       `gorm:"type:varchar(32);index" json:"category"` // nutrition, hydration, challenges, streaks, levels
	Points       int64        `gorm:"default:0" json:"points"`
	Icon         string       `gorm:"size:16" json:"icon"`
	Requirements Requirements `gorm:"type:jsonb" json:"requirements"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// UserAchievement: earned instance, never removed. One row per (user, achievement).
type UserAchievement struct {
	ID            string      `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string      `gorm:"uniqueIndex:idx_user_achievement;not null" json:"user_id"`
	AchievementID string      `gorm:"uniqueIndex:idx_user_achievement;type:uuid;not null" json:"achievement_id"`
	EarnedAt      time.Time   `gorm:"autoCreateTime" json:"earned_at"`
	Displayed     bool        `gorm:"default:false" json:"displayed"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement"`
}

func (u *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

const CategoryNutrition = "nutrition"
