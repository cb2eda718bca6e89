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

func TestSweepUsersChecksRecentlyActiveUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sweeper := services.NewSweeper(f.db, f.achievements, f.badges)

	f.createAchievement(t, "first-bite", models.CategoryNutrition, 10, models.AnyOf(models.MealsLoggedAtLeast{Count: 1}))
	f.createBadge(t, "streak-master", 0)

	since := time.Now().Add(-time.Hour)
	_, err := f.nutrition.LogNutrition(ctx, &models.NutritionLog{UserID: "dana", Calories: 300})
	require.NoError(t, err)
	f.give(t, "eli", 40)

	users, err := sweeper.ActiveUsers(ctx, since)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dana", "eli"}, users)

	report, err := sweeper.SweepUsers(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 1, report.Achievements)
	assert.Zero(t, report.Failures)
	assert.EqualValues(t, 10, f.balance(t, "dana"))

	report, err = sweeper.SweepUsers(ctx, since)
	require.NoError(t, err)
	assert.Zero(t, report.Achievements)
}
