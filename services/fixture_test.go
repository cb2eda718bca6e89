package services_test

import (
	"context"
	"testing"
	"time"

	"wellness-progression/metrics"
	"wellness-progression/models"
	"wellness-progression/services"
	"wellness-progression/store"
	"wellness-progression/store/storetest"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db           *gorm.DB
	procs        *store.TxProcedures
	points       *services.PointsService
	benefits     *services.BenefitService
	achievements *services.AchievementService
	badges       *services.BadgeService
	streaks      *services.StreakService
	challenges   *services.ChallengeService
	nutrition    *services.NutritionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storetest.Open(t)
	levels := models.DefaultLevelTable()
	procs := store.NewTxProcedures(levels, time.UTC)
	points := services.NewPointsService(db, levels, procs)
	streaks := services.NewStreakService(db, procs)

	return &fixture{
		db:           db,
		procs:        procs,
		points:       points,
		benefits:     services.NewBenefitService(db, points, true),
		achievements: services.NewAchievementService(db, points),
		badges:       services.NewBadgeService(db, points),
		streaks:      streaks,
		challenges:   services.NewChallengeService(db, points),
		nutrition:    services.NewNutritionService(db, streaks),
	}
}

// give credits points straight through the ledger.
func (f *fixture) give(t *testing.T, userID string, points int64) {
	t.Helper()
	_, err := f.points.AwardPoints(context.Background(), services.AwardRequest{
		UserID: userID, Points: points, Reason: "test setup",
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	up, err := f.points.GetUserPoints(context.Background(), userID)
	require.NoError(t, err)
	return up.TotalPoints
}

func (f *fixture) ledgerSum(t *testing.T, userID string) int64 {
	t.Helper()
	var sum int64
	require.NoError(t, f.db.Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").Scan(&sum).Error)
	return sum
}

func (f *fixture) ledgerCount(t *testing.T, userID string, refType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND reference_type = ?", userID, refType).
		Count(&n).Error)
	return n
}

func (f *fixture) createBenefit(t *testing.T, code string, level int, data string) models.LevelBenefit {
	t.Helper()
	b := models.LevelBenefit{
		Code:          code,
		Name:          code,
		LevelRequired: level,
		BenefitType:   "recipe_pack",
		BenefitData:   models.JSON(data),
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(&b).Error)
	return b
}

func (f *fixture) createChallenge(t *testing.T, code string, points int64) models.Challenge {
	t.Helper()
	c := models.Challenge{Code: code, Title: code, Points: points, IsActive: true}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) createAchievement(t *testing.T, code, category string, points int64, req models.Requirements) models.Achievement {
	t.Helper()
	a := models.Achievement{Code: code, Name: code, Category: category, Points: points, Requirements: req}
	require.NoError(t, f.db.Create(&a).Error)
	return a
}

func (f *fixture) createBadge(t *testing.T, code string, points int64) models.Badge {
	t.Helper()
	b := models.Badge{Code: code, Name: code, Rarity: models.RarityLegendary, Points: points}
	require.NoError(t, f.db.Create(&b).Error)
	return b
}

func (f *fixture) setStreak(t *testing.T, userID, streakType string, current, longest int, last time.Time) {
	t.Helper()
	s := models.NutritionStreak{
		UserID:          userID,
		StreakType:      streakType,
		CurrentStreak:   current,
		LongestStreak:   longest,
		LastTrackedDate: &last,
	}
	require.NoError(t, f.db.Create(&s).Error)
}

// counterValue reads one labelled series of a registered counter, 0 when absent.
func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
