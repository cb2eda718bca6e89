package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness-progression/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidTransaction = errors.New("invalid points transaction")

// PointsTransactionParams are the arguments of record_points_transaction.
// Points is the signed delta: positive for earn/refund, negative for spend.
type PointsTransactionParams struct {
	UserID        string
	Points        int64
	Type          models.TransactionType
	Reason        string
	ReferenceID   *string
	ReferenceType *string
	Metadata      models.JSON
}

func (p PointsTransactionParams) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidTransaction)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidTransaction, p.Type)
	}
	switch {
	case p.Points == 0:
		return fmt.Errorf("%w: points must be non-zero", ErrInvalidTransaction)
	case p.Type == models.TransactionSpend && p.Points > 0:
		return fmt.Errorf("%w: spend must carry a negative delta", ErrInvalidTransaction)
	case p.Type != models.TransactionSpend && p.Points < 0:
		return fmt.Errorf("%w: %s must carry a positive delta", ErrInvalidTransaction, p.Type)
	}
	return nil
}

// Procedures are the atomic operations of the data service. Each call is one
// transaction; db may itself be a transaction, in which case the call nests.
type Procedures interface {
	// RecordPointsTransaction appends a ledger row and moves the cached balance and level with it.
	RecordPointsTransaction(ctx context.Context, db *gorm.DB, p PointsTransactionParams) (string, error)
	// GetUserStreak returns the current streak, 0 when the streak has lapsed.
	GetUserStreak(ctx context.Context, db *gorm.DB, userID, streakType string) (int, error)
	// UpdateUserStreak applies one day of activity. It returns false when today was already counted.
	UpdateUserStreak(ctx context.Context, db *gorm.DB, userID, streakType string) (bool, error)
}

// TxProcedures implements Procedures as gorm transactions, for any dialect.
type TxProcedures struct {
	Levels   models.LevelTable
	Location *time.Location
	Now      func() time.Time
}

func NewTxProcedures(levels models.LevelTable, loc *time.Location) *TxProcedures {
	if loc == nil {
		loc = time.UTC
	}
	return &TxProcedures{Levels: levels, Location: loc, Now: time.Now}
}

func (p *TxProcedures) today() time.Time {
	return dayOf(p.Now(), p.Location)
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (p *TxProcedures) RecordPointsTransaction(ctx context.Context, db *gorm.DB, params PointsTransactionParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	var txID string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.UserPoints{
			UserID:            params.UserID,
			CurrentLevel:      1,
			PointsToNextLevel: p.Levels.PointsForNextLevel(0),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to initialize points row: %w", err)
		}

		// Relative update: concurrent writers serialize on the row instead of overwriting each other.
		if err := tx.Model(&models.UserPoints{}).
			Where("user_id = ?", params.UserID).
			Update("total_points", gorm.Expr("total_points + ?", params.Points)).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		entry := models.PointsTransaction{
			UserID:          params.UserID,
			Points:          params.Points,
			TransactionType: params.Type,
			Reason:          params.Reason,
			ReferenceID:     params.ReferenceID,
			ReferenceType:   params.ReferenceType,
			Metadata:        params.Metadata,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}

		var up models.UserPoints
		if err := tx.Where("user_id = ?", params.UserID).First(&up).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserPoints{}).
			Where("user_id = ?", params.UserID).
			Updates(map[string]interface{}{
				"current_level":        p.Levels.CalculateLevel(up.TotalPoints),
				"points_to_next_level": p.Levels.PointsForNextLevel(up.TotalPoints),
			}).Error; err != nil {
			return fmt.Errorf("failed to update level: %w", err)
		}

		txID = entry.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return txID, nil
}

func (p *TxProcedures) GetUserStreak(ctx context.Context, db *gorm.DB, userID, streakType string) (int, error) {
	var s models.NutritionStreak
	err := db.WithContext(ctx).
		Where("user_id = ? AND streak_type = ?", userID, streakType).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if s.LastTrackedDate == nil {
		return 0, nil
	}

	last := dayOf(*s.LastTrackedDate, p.Location)
	if last.Before(p.today().AddDate(0, 0, -1)) {
		return 0, nil
	}
	return s.CurrentStreak, nil
}

func (p *TxProcedures) UpdateUserStreak(ctx context.Context, db *gorm.DB, userID, streakType string) (bool, error) {
	today := p.today()
	advanced := false

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.NutritionStreak{UserID: userID, StreakType: streakType}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "streak_type"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to initialize streak: %w", err)
		}

		var s models.NutritionStreak
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND streak_type = ?", userID, streakType).
			First(&s).Error; err != nil {
			return err
		}

		current := 1
		if s.LastTrackedDate != nil {
			last := dayOf(*s.LastTrackedDate, p.Location)
			switch {
			case last.Equal(today):
				return nil
			case last.Equal(today.AddDate(0, 0, -1)):
				current = s.CurrentStreak + 1
			}
		}
		longest := s.LongestStreak
		if current > longest {
			longest = current
		}

		if err := tx.Model(&models.NutritionStreak{}).
			Where("id = ?", s.ID).
			Updates(map[string]interface{}{
				"current_streak":    current,
				"longest_streak":    longest,
				"last_tracked_date": today,
			}).Error; err != nil {
			return fmt.Errorf("failed to advance streak: %w", err)
		}
		advanced = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return advanced, nil
}
