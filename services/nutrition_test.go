package services_test

import (
	"context"
	"testing"
	"time"

	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNutritionTracksStreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.nutrition.LogNutrition(ctx, &models.NutritionLog{
		UserID: "ada", MealType: models.MealBreakfast, Calories: 420, ProteinG: 25, WaterCups: 3,
	})
	require.NoError(t, err)
	assert.True(t, res.DailyStreakAdvanced)
	assert.False(t, res.WaterStreakAdvanced)
	assert.NotEmpty(t, res.Log.ID)

	res, err = f.nutrition.LogNutrition(ctx, &models.NutritionLog{
		UserID: "ada", MealType: models.MealDinner, Calories: 650, WaterCups: models.WaterGoalCups,
	})
	require.NoError(t, err)
	assert.False(t, res.DailyStreakAdvanced, "second log of the day")
	assert.True(t, res.WaterStreakAdvanced)

	daily, err := f.streaks.GetUserStreak(ctx, "ada", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Equal(t, 1, daily)
	water, err := f.streaks.GetUserStreak(ctx, "ada", models.StreakWaterGoal)
	require.NoError(t, err)
	assert.Equal(t, 1, water)

	logs, err := f.nutrition.ListNutritionLogs(ctx, "ada", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestLogNutritionRejectsNegativeValues(t *testing.T) {
	f := newFixture(t)
	_, err := f.nutrition.LogNutrition(context.Background(), &models.NutritionLog{UserID: "ben", Calories: -1})
	assert.ErrorIs(t, err, services.ErrInvalidLog)
	_, err = f.nutrition.LogNutrition(context.Background(), &models.NutritionLog{Calories: 100})
	assert.ErrorIs(t, err, services.ErrInvalidLog)
}

func TestLogNutritionBackdatedSkipsStreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.nutrition.LogNutrition(ctx, &models.NutritionLog{
		UserID: "bea", Calories: 500, WaterCups: 10, LogDate: time.Now().AddDate(0, 0, -2),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Log.ID)
	assert.False(t, res.DailyStreakAdvanced)
	assert.False(t, res.WaterStreakAdvanced)

	daily, err := f.streaks.GetUserStreak(ctx, "bea", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Equal(t, 0, daily)
}

func TestStreakDayFollowsLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC) // 11 March in Tokyo
	f.procs.Location = tokyo
	f.procs.Now = func() time.Time { return now }
	f.nutrition.Location = tokyo
	f.nutrition.Now = func() time.Time { return now }

	res, err := f.nutrition.LogNutrition(ctx, &models.NutritionLog{
		UserID: "kenji", Calories: 300, LogDate: time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, res.DailyStreakAdvanced)

	// same UTC date as now, but the previous day in Tokyo
	res, err = f.nutrition.LogNutrition(ctx, &models.NutritionLog{
		UserID: "yui", Calories: 300, LogDate: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.False(t, res.DailyStreakAdvanced)

	ext := "journal-yui-1"
	_, err = f.nutrition.UpsertExternalLogs(ctx, []models.NutritionLog{
		{UserID: "yui", ExternalID: &ext, Calories: 200, LogDate: time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	daily, err := f.streaks.GetUserStreak(ctx, "yui", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Equal(t, 0, daily)
}

func TestUpsertExternalLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ext1, ext2 := "journal-1", "journal-2"

	stored, err := f.nutrition.UpsertExternalLogs(ctx, []models.NutritionLog{
		{UserID: "cleo", ExternalID: &ext1, Calories: 300, WaterCups: 9},
		{UserID: "cleo", ExternalID: &ext2, Calories: 200, LogDate: time.Now().AddDate(0, 0, -3)},
		{UserID: "cleo", Calories: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	stored, err = f.nutrition.UpsertExternalLogs(ctx, []models.NutritionLog{
		{UserID: "cleo", ExternalID: &ext1, Calories: 350, WaterCups: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	var logs []models.NutritionLog
	require.NoError(t, f.db.Where("user_id = ?", "cleo").Order("log_date DESC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, 350, logs[0].Calories)

	water, err := f.streaks.GetUserStreak(ctx, "cleo", models.StreakWaterGoal)
	require.NoError(t, err)
	assert.Equal(t, 1, water)
}
