package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreakServiceAdvancesOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.procs.Now = func() time.Time { return day }

	advanced, err := f.streaks.UpdateUserStreak(ctx, "vic", models.StreakDailyLog)
	require.NoError(t, err)
	assert.True(t, advanced)
	advanced, err = f.streaks.UpdateUserStreak(ctx, "vic", models.StreakDailyLog)
	require.NoError(t, err)
	assert.False(t, advanced)

	day = day.AddDate(0, 0, 1)
	_, err = f.streaks.UpdateUserStreak(ctx, "vic", models.StreakDailyLog)
	require.NoError(t, err)
	n, err := f.streaks.GetUserStreak(ctx, "vic", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a missed day lapses the streak on read and restarts it on the next update
	day = day.AddDate(0, 0, 2)
	n, err = f.streaks.GetUserStreak(ctx, "vic", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.streaks.UpdateUserStreak(ctx, "vic", models.StreakDailyLog)
	require.NoError(t, err)
	rows, err := f.streaks.GetUserStreaks(ctx, "vic")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].CurrentStreak)
	assert.Equal(t, 2, rows[0].LongestStreak)
}

func TestStreakServiceRejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	_, err := f.streaks.UpdateUserStreak(context.Background(), "wes", "sleep")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	_, err = f.streaks.GetUserStreak(context.Background(), "wes", "sleep")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}
