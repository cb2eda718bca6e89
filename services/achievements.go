package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"wellness-progression/metrics"
	"wellness-progression/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activityWindow bounds the nutrition logs counted toward meal and water achievements.
const activityWindow = 30 * 24 * time.Hour

type AchievementService struct {
	DB     *gorm.DB
	Points *PointsService
	Now    func() time.Time

	catalog *catalogCache
}

func NewAchievementService(db *gorm.DB, points *PointsService) *AchievementService {
	return &AchievementService{
		DB:      db,
		Points:  points,
		Now:     time.Now,
		catalog: newCatalogCache(catalogCacheSize, catalogCacheTTL),
	}
}

const achievementCatalogKey = "achievements:all"

func (s *AchievementService) ListAchievements(ctx context.Context) ([]models.Achievement, error) {
	if v, ok := s.catalog.get(achievementCatalogKey); ok {
		return v.([]models.Achievement), nil
	}
	all := []models.Achievement{}
	if err := s.DB.WithContext(ctx).Order("category ASC").Order("points ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	s.catalog.add(achievementCatalogKey, all)
	return all, nil
}

// InvalidateCatalog forgets the cached achievement list after a reseed.
func (s *AchievementService) InvalidateCatalog() {
	s.catalog.Purge()
}

func (s *AchievementService) GetUserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	rows := []models.UserAchievement{}
	err := s.DB.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&rows).Error
	return rows, err
}

// MarkAchievementsDisplayed flags earned achievements as shown to the user. An empty
// id list marks all of them.
func (s *AchievementService) MarkAchievementsDisplayed(ctx context.Context, userID string, achievementIDs []string) (int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.UserAchievement{}).
		Where("user_id = ? AND displayed = ?", userID, false)
	if len(achievementIDs) > 0 {
		q = q.Where("achievement_id IN ?", achievementIDs)
	}
	res := q.Update("displayed", true)
	return res.RowsAffected, res.Error
}

// BuildSnapshot loads everything an evaluation needs about the user.
func (s *AchievementService) BuildSnapshot(ctx context.Context, userID string) (models.ActivitySnapshot, error) {
	var (
		snap          models.ActivitySnapshot
		up            *models.UserPoints
		completed     int64
		mealsLogged   int64
		waterGoalDays int64
		streaks       []models.NutritionStreak
	)
	since := s.Now().UTC().Add(-activityWindow)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		up, err = s.Points.GetUserPoints(gctx, userID)
		return err
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&models.UserChallenge{}).
			Where("user_id = ? AND status = ?", userID, models.ChallengeCompleted).
			Count(&completed).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&models.NutritionLog{}).
			Where("user_id = ? AND log_date >= ?", userID, since).
			Count(&mealsLogged).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&models.NutritionLog{}).
			Where("user_id = ? AND log_date >= ? AND water_cups >= ?", userID, since, models.WaterGoalCups).
			Count(&waterGoalDays).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Where("user_id = ?", userID).Find(&streaks).Error
	})
	if err := g.Wait(); err != nil {
		return snap, fmt.Errorf("failed to load activity for %s: %w", userID, err)
	}

	snap.TotalPoints = up.TotalPoints
	snap.Level = s.Points.Levels.CalculateLevel(up.TotalPoints)
	snap.ChallengesCompleted = int(completed)
	snap.MealsLogged = int(mealsLogged)
	snap.WaterGoalDays = int(waterGoalDays)
	for _, st := range streaks {
		// lapsed streaks read as 0, same as GetUserStreak
		current, err := s.Points.Procedures.GetUserStreak(ctx, s.DB, userID, st.StreakType)
		if err != nil {
			return snap, fmt.Errorf("failed to read %s streak for %s: %w", st.StreakType, userID, err)
		}
		if current > snap.CurrentStreak {
			snap.CurrentStreak = current
		}
		if st.LongestStreak > snap.LongestStreak {
			snap.LongestStreak = st.LongestStreak
		}
	}
	return snap, nil
}

// CheckAndUpdateAchievements awards every achievement whose requirements the user now
// meets and returns the newly earned ones. Any error aborts the run; achievements
// awarded before the error stay awarded.
func (s *AchievementService) CheckAndUpdateAchievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	var (
		catalog []models.Achievement
		earned  []string
		snap    models.ActivitySnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = s.ListAchievements(gctx)
		return err
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&models.UserAchievement{}).
			Where("user_id = ?", userID).
			Pluck("achievement_id", &earned).Error
	})
	g.Go(func() error {
		var err error
		snap, err = s.BuildSnapshot(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(earned))
	for _, id := range earned {
		have[id] = true
	}

	awarded := []models.Achievement{}
	for _, a := range catalog {
		if have[a.ID] || !a.Requirements.Evaluate(snap) {
			continue
		}
		created, err := s.AwardAchievement(ctx, userID, a)
		if err != nil {
			return awarded, err
		}
		if created {
			awarded = append(awarded, a)
		}
	}
	return awarded, nil
}

// AwardAchievement inserts the earned row and, only when this call created it, credits
// the achievement's points. Both happen in one transaction.
func (s *AchievementService) AwardAchievement(ctx context.Context, userID string, a models.Achievement) (bool, error) {
	created := false
	var award *AwardResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ua := models.UserAchievement{UserID: userID, AchievementID: a.ID}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).Create(&ua)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		if a.Points <= 0 {
			return nil
		}
		var err error
		award, err = s.Points.AwardPointsTx(ctx, tx, AwardRequest{
			UserID:        userID,
			Points:        a.Points,
			Reason:        "Achievement unlocked: " + a.Name,
			ReferenceID:   a.ID,
			ReferenceType: models.RefAchievement,
		})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to award achievement %s to %s: %w", a.Code, userID, err)
	}
	if award != nil {
		countAward(a.Points, award)
	}
	if created {
		metrics.AchievementsAwarded.WithLabelValues(a.Category).Inc()
		log.Printf("🏆 Achievement unlocked: %s → %s (+%d)", userID, a.Code, a.Points)
	}
	return created, nil
}
