package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengeDifficulty string

const (
	DifficultyEasy   ChallengeDifficulty = "easy"
	DifficultyMedium ChallengeDifficulty = "medium"
	DifficultyHard   ChallengeDifficulty = "hard"
)

type ChallengeStatus string

const (
	ChallengeInProgress ChallengeStatus = "in_progress"
	ChallengeCompleted  ChallengeStatus = "completed"
	ChallengeFailed     ChallengeStatus = "failed"
)

// Challenge is a catalog template users can start.
type Challenge struct {
	ID           string              `gorm:"primaryKey;type:uuid" json:"id"`
	Code         string              `gorm:"uniqueIndex;not null" json:"code"`
	Title        string              `gorm:"not null" json:"title"`
	Description  string              `gorm:"type:text" json:"description"`
	Points       int64               `gorm:"default:0" json:"points"`
	Difficulty   ChallengeDifficulty `gorm:"type:varchar(16);default:'easy'" json:"difficulty"`
	Category     string              `gorm:"type:varchar(32)" json:"category"`
	Requirements JSON                `gorm:"type:jsonb" json:"requirements,omitempty"`
	DurationDays int                 `gorm:"default:7" json:"duration_days"`
	IsActive     bool                `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// UserChallenge is a user's run of a challenge.
type UserChallenge struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string          `gorm:"index:idx_user_challenge_status,priority:1;not null" json:"user_id"`
	ChallengeID string          `gorm:"index;type:uuid;not null" json:"challenge_id"`
	Status      ChallengeStatus `gorm:"index:idx_user_challenge_status,priority:2;type:varchar(16);not null;default:'in_progress'" json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Progress    JSON            `gorm:"type:jsonb" json:"progress,omitempty"`
	Challenge   Challenge       `gorm:"foreignKey:ChallengeID" json:"challenge"`
	Timestamps
}

func (u *UserChallenge) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.StartedAt.IsZero() {
		u.StartedAt = time.Now()
	}
	return nil
}
