package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityUncommon  BadgeRarity = "uncommon"
	RarityRare      BadgeRarity = "rare"
	RarityLegendary BadgeRarity = "legendary"
)

func (r BadgeRarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityLegendary:
		return true
	}
	return false
}

// Badge: static config (seeded from the catalog file)
type Badge struct {
	ID               string      `gorm:"primaryKey;type:uuid" json:"id"`
	Code             string      `gorm:"uniqueIndex;not null" json:"code"` // e.g., "nutrition-guru", "streak-master"
	Name             string      `gorm:"not null" json:"name"`
	Description      string      `gorm:"type:text" json:"description"`
	IconURL          string      `gorm:"type:text" json:"icon_url"`
	Rarity           BadgeRarity `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	Category         string      `gorm:"type:varchar(32)" json:"category"`
	Points           int64       `gorm:"default:0" json:"points"`
	RequirementCount int         `gorm:"default:1" json:"requirement_count"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// UserBadge tracks progress toward a badge; UnlockedAt is set once and never cleared.
type UserBadge struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string     `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID    string     `gorm:"uniqueIndex:idx_user_badge;type:uuid;not null" json:"badge_id"`
	Progress   int        `gorm:"default:0" json:"progress"`
	Total      int        `gorm:"default:1" json:"total"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	IsEquipped bool       `gorm:"default:false" json:"is_equipped"`
	Badge      Badge      `gorm:"foreignKey:BadgeID" json:"badge"`
	Timestamps
}

func (u *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *UserBadge) Unlocked() bool {
	return u.UnlockedAt != nil
}
