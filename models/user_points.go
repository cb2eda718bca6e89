package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserPoints is the materialized balance for a user (denormalized from the ledger)
type UserPoints struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"` // links to auth provider

	TotalPoints       int64 `json:"total_points" gorm:"default:0"`
	CurrentLevel      int   `json:"current_level" gorm:"default:1"`
	PointsToNextLevel int64 `json:"points_to_next_level" gorm:"default:100"`

	Timestamps
}

func (u *UserPoints) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
