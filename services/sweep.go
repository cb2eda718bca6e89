package services

import (
	"context"
	"log"
	"time"

	"wellness-progression/models"

	"gorm.io/gorm"
)

// Sweeper re-evaluates achievements and badges for users with recent activity, so
// unlocks that depend on elapsed time or background sync are not missed.
type Sweeper struct {
	DB           *gorm.DB
	Achievements *AchievementService
	Badges       *BadgeService
}

func NewSweeper(db *gorm.DB, achievements *AchievementService, badges *BadgeService) *Sweeper {
	return &Sweeper{DB: db, Achievements: achievements, Badges: badges}
}

type SweepReport struct {
	Users        int `json:"users"`
	Achievements int `json:"achievements"`
	Badges       int `json:"badges"`
	Failures     int `json:"failures"`
}

// ActiveUsers returns users with a ledger entry or a nutrition log since the given time.
func (s *Sweeper) ActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	var fromLedger, fromLogs []string
	if err := s.DB.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("created_at >= ?", since).
		Distinct().Pluck("user_id", &fromLedger).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.NutritionLog{}).
		Where("updated_at >= ?", since).
		Distinct().Pluck("user_id", &fromLogs).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(fromLedger)+len(fromLogs))
	users := []string{}
	for _, id := range append(fromLedger, fromLogs...) {
		if !seen[id] {
			seen[id] = true
			users = append(users, id)
		}
	}
	return users, nil
}

// SweepUsers checks every active user. A failing user is logged and skipped.
func (s *Sweeper) SweepUsers(ctx context.Context, since time.Time) (SweepReport, error) {
	var report SweepReport
	users, err := s.ActiveUsers(ctx, since)
	if err != nil {
		return report, err
	}
	report.Users = len(users)

	for _, userID := range users {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		achievements, err := s.Achievements.CheckAndUpdateAchievements(ctx, userID)
		report.Achievements += len(achievements)
		if err != nil {
			report.Failures++
			log.Printf("⚠️  [SWEEP] Achievement check failed for %s: %v", userID, err)
			continue
		}
		badges, err := s.Badges.CheckAndAwardBadges(ctx, userID)
		report.Badges += len(badges)
		if err != nil {
			report.Failures++
			log.Printf("⚠️  [SWEEP] Badge check failed for %s: %v", userID, err)
		}
	}
	return report, nil
}
