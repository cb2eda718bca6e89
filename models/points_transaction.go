package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionEarn   TransactionType = "earn"
	TransactionSpend  TransactionType = "spend"
	TransactionRefund TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionEarn, TransactionSpend, TransactionRefund:
		return true
	}
	return false
}

// Reference types used by the engine when it writes ledger rows
const (
	RefChallenge    = "challenge"
	RefAchievement  = "achievement"
	RefBadge        = "badge"
	RefLevelBenefit = "level_benefit"
	RefAdminGrant   = "admin_grant"
)

// PointsTransaction is an append-only ledger entry. Points is signed.
type PointsTransaction struct {
	ID              string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string          `gorm:"index:idx_points_tx_user_created,priority:1;not null" json:"user_id"`
	Points          int64           `gorm:"not null" json:"points"`
	TransactionType TransactionType `gorm:"type:varchar(16);not null" json:"transaction_type"`
	Reason          string          `gorm:"type:text" json:"reason"`
	ReferenceID     *string         `json:"reference_id,omitempty"`
	ReferenceType   *string         `gorm:"type:varchar(32)" json:"reference_type,omitempty"`
	Metadata        JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time       `gorm:"index:idx_points_tx_user_created,priority:2;autoCreateTime" json:"created_at"`
}

func (p *PointsTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
