package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// NutritionLog is one journal entry from the tracking app.
type NutritionLog struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"index:idx_nutrition_user_date,priority:1;not null" json:"user_id"`
	LogDate    time.Time `gorm:"index:idx_nutrition_user_date,priority:2;not null" json:"log_date"`
	MealType   MealType  `gorm:"type:varchar(16)" json:"meal_type"`
	Calories   int       `json:"calories"`
	ProteinG   float64   `json:"protein_g"`
	CarbsG     float64   `json:"carbs_g"`
	FatG       float64   `json:"fat_g"`
	WaterCups  int       `json:"water_cups"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`
	ExternalID *string   `gorm:"uniqueIndex" json:"external_id,omitempty"` // id in the journal service, for sync upserts
	Timestamps
}

func (n *NutritionLog) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.LogDate.IsZero() {
		n.LogDate = time.Now()
	}
	return nil
}

func (n *NutritionLog) MetWaterGoal() bool {
	return n.WaterCups >= WaterGoalCups
}
