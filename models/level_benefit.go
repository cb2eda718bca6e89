package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

type BenefitStatus string

const (
	BenefitUnlocked BenefitStatus = "unlocked"
	BenefitUsed     BenefitStatus = "used"
	BenefitExpired  BenefitStatus = "expired"
)

// LevelBenefit is a perk gated by level. BenefitData is free-form; the engine reads
// "points_cost" and "expires_in_days" from it.
type LevelBenefit struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	Code          string    `gorm:"uniqueIndex;not null" json:"code"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	LevelRequired int       `gorm:"not null;default:1;index" json:"level_required"`
	BenefitType   string    `gorm:"type:varchar(32)" json:"benefit_type"` // recipe_pack, meal_plan_template, theme, coaching_session
	BenefitData   JSON      `gorm:"type:jsonb" json:"benefit_data,omitempty"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *LevelBenefit) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// PointsCost is the spend recorded when the benefit is used; 0 when absent.
func (b *LevelBenefit) PointsCost() int64 {
	if len(b.BenefitData) == 0 {
		return 0
	}
	return gjson.GetBytes(b.BenefitData, "points_cost").Int()
}

// ExpiresInDays is how long an unlocked benefit stays usable; 0 means never expires.
func (b *LevelBenefit) ExpiresInDays() int {
	if len(b.BenefitData) == 0 {
		return 0
	}
	return int(gjson.GetBytes(b.BenefitData, "expires_in_days").Int())
}

// UserLevelBenefit: unlocked -> used, or unlocked -> expired. One row per (user, benefit).
type UserLevelBenefit struct {
	ID         string        `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string        `gorm:"uniqueIndex:idx_user_benefit;not null" json:"user_id"`
	BenefitID  string        `gorm:"uniqueIndex:idx_user_benefit;type:uuid;not null" json:"benefit_id"`
	Status     BenefitStatus `gorm:"type:varchar(16);not null;default:'unlocked';index" json:"status"`
	UnlockedAt time.Time     `json:"unlocked_at"`
	UsedAt     *time.Time    `json:"used_at,omitempty"`
	ExpiredAt  *time.Time    `json:"expired_at,omitempty"`
	Metadata   JSON          `gorm:"type:jsonb" json:"metadata,omitempty"`
	Benefit    LevelBenefit  `gorm:"foreignKey:BenefitID" json:"benefit"`
}

func (u *UserLevelBenefit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.UnlockedAt.IsZero() {
		u.UnlockedAt = time.Now()
	}
	return nil
}
