package models_test

import (
	"testing"

	"wellness-progression/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevelBoundaries(t *testing.T) {
	table := models.DefaultLevelTable()

	cases := []struct {
		points int64
		level  int
	}{
		{-350, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{999, 4},
		{1000, 5},
		{9999, 9},
		{10000, 10},
		{1 << 40, 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, table.CalculateLevel(tc.points), "points=%d", tc.points)
	}
}

func TestEveryPointTotalMapsToExactlyOneLevel(t *testing.T) {
	table := models.DefaultLevelTable()
	for p := int64(0); p <= 12000; p += 7 {
		matches := 0
		for _, l := range table.Levels() {
			if l.Contains(p) {
				matches++
			}
		}
		require.Equal(t, 1, matches, "points=%d", p)
	}
}

func TestPointsForNextLevel(t *testing.T) {
	table := models.DefaultLevelTable()
	assert.EqualValues(t, 100, table.PointsForNextLevel(0))
	assert.EqualValues(t, 1, table.PointsForNextLevel(99))
	assert.EqualValues(t, 150, table.PointsForNextLevel(100))
	assert.EqualValues(t, 0, table.PointsForNextLevel(10000))
	assert.EqualValues(t, 0, table.PointsForNextLevel(50000))
}

func TestLevelInfo(t *testing.T) {
	table := models.DefaultLevelTable()
	assert.Equal(t, "Wellness Legend", table.LevelInfo(10).Title)
	assert.Equal(t, models.OpenEnded, table.LevelInfo(10).MaxPoints)
	assert.Equal(t, 1, table.LevelInfo(42).Level)
	assert.Equal(t, 10, table.MaxLevel())
}

func TestNewLevelTableRejectsBrokenTables(t *testing.T) {
	_, err := models.NewLevelTable(nil)
	assert.ErrorIs(t, err, models.ErrEmptyLevelTable)

	_, err = models.NewLevelTable([]models.Level{
		{Level: 1, MinPoints: 0, MaxPoints: 99},
		{Level: 2, MinPoints: 120, MaxPoints: models.OpenEnded},
	})
	assert.ErrorContains(t, err, "does not follow")

	_, err = models.NewLevelTable([]models.Level{
		{Level: 1, MinPoints: 10, MaxPoints: models.OpenEnded},
	})
	assert.ErrorContains(t, err, "must start at 0")

	_, err = models.NewLevelTable([]models.Level{
		{Level: 1, MinPoints: 0, MaxPoints: 99},
		{Level: 2, MinPoints: 100, MaxPoints: 200},
	})
	assert.ErrorContains(t, err, "open-ended")

	_, err = models.NewLevelTable([]models.Level{
		{Level: 2, MinPoints: 0, MaxPoints: models.OpenEnded},
	})
	assert.ErrorContains(t, err, "numbered 1..n")
}

func TestLevelRowRoundTrip(t *testing.T) {
	for _, l := range models.DefaultLevels {
		assert.Equal(t, l, models.LevelRowFrom(l).ToLevel())
	}
	assert.Nil(t, models.LevelRowFrom(models.DefaultLevels[9]).MaxPoints)
}
