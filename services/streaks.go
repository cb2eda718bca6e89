package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"wellness-progression/metrics"
	"wellness-progression/models"
	"wellness-progression/store"

	"gorm.io/gorm"
)

type StreakService struct {
	DB         *gorm.DB
	Procedures store.Procedures
}

func NewStreakService(db *gorm.DB, procs store.Procedures) *StreakService {
	return &StreakService{DB: db, Procedures: procs}
}

// KnownStreakType reports whether the engine tracks the given streak type.
func KnownStreakType(streakType string) bool {
	switch streakType {
	case models.StreakDailyLog, models.StreakWaterGoal:
		return true
	}
	return false
}

func (s *StreakService) GetUserStreak(ctx context.Context, userID, streakType string) (int, error) {
	if !KnownStreakType(streakType) {
		return 0, fmt.Errorf("streak type %q: %w", streakType, ErrNotFound)
	}
	return s.Procedures.GetUserStreak(ctx, s.DB, userID, streakType)
}

// UpdateUserStreak records today's activity. false means today was already counted.
func (s *StreakService) UpdateUserStreak(ctx context.Context, userID, streakType string) (bool, error) {
	return s.updateWith(ctx, s.DB, userID, streakType)
}

func (s *StreakService) updateWith(ctx context.Context, db *gorm.DB, userID, streakType string) (bool, error) {
	if !KnownStreakType(streakType) {
		return false, fmt.Errorf("streak type %q: %w", streakType, ErrNotFound)
	}
	advanced, err := s.Procedures.UpdateUserStreak(ctx, db, userID, streakType)
	if err != nil {
		return false, fmt.Errorf("failed to update %s streak for %s: %w", streakType, userID, err)
	}
	metrics.StreakUpdates.WithLabelValues(streakType, strconv.FormatBool(advanced)).Inc()
	if advanced {
		log.Printf("🔥 Streak updated: %s %s", userID, streakType)
	}
	return advanced, nil
}

// GetUserStreaks returns the stored streak rows. CurrentStreak is reported as 0
// for lapsed streaks, same as GetUserStreak.
func (s *StreakService) GetUserStreaks(ctx context.Context, userID string) ([]models.NutritionStreak, error) {
	rows := []models.NutritionStreak{}
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("streak_type ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		current, err := s.Procedures.GetUserStreak(ctx, s.DB, userID, rows[i].StreakType)
		if err != nil {
			return nil, err
		}
		rows[i].CurrentStreak = current
	}
	return rows, nil
}
