package workers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wellness-progression/models"
	"wellness-progression/services"
	"wellness-progression/store"
	"wellness-progression/store/storetest"
	"wellness-progression/workers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNutritionSyncWorkerSyncOnce(t *testing.T) {
	db := storetest.Open(t)
	ctx := context.Background()
	levels := models.DefaultLevelTable()
	streaks := services.NewStreakService(db, store.NewTxProcedures(levels, time.UTC))
	nutrition := services.NewNutritionService(db, streaks)

	updated := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	var sinceSeen []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Service-Token") != "journal-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/changes", r.URL.Path)
		sinceSeen = append(sinceSeen, r.URL.Query().Get("since"))

		resp := workers.GetLogChangesResponse{Logs: []workers.RemoteNutritionLog{
			{ID: "j-1", UserID: "kai", LogDate: time.Now().UTC(), MealType: "lunch", Calories: 610, WaterCups: 8, UpdatedAt: updated},
			{ID: "j-2", UserID: "kai", LogDate: time.Now().UTC().AddDate(0, 0, -4), MealType: "dinner", Calories: 700, UpdatedAt: updated.Add(-time.Hour)},
			{ID: "j-3", UserID: "kai", Calories: -50, UpdatedAt: updated},
		}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	worker := workers.NewNutritionSyncWorker(db, nutrition, srv.URL, "/changes", "journal-token")
	assert.Equal(t, time.Unix(0, 0), worker.LastSyncTime(ctx))

	require.NoError(t, worker.SyncOnce(ctx))
	require.Len(t, sinceSeen, 1)
	assert.Equal(t, time.Unix(0, 0).UTC().Format(time.RFC3339), sinceSeen[0])

	var n int64
	require.NoError(t, db.Model(&models.NutritionLog{}).Where("user_id = ?", "kai").Count(&n).Error)
	assert.EqualValues(t, 2, n, "the negative-calorie entry is skipped")
	assert.True(t, worker.LastSyncTime(ctx).Equal(updated))

	daily, err := streaks.GetUserStreak(ctx, "kai", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Equal(t, 1, daily)
	water, err := streaks.GetUserStreak(ctx, "kai", models.StreakWaterGoal)
	require.NoError(t, err)
	assert.Equal(t, 1, water)

	// a replayed feed upserts in place and the streak does not advance twice
	require.NoError(t, worker.SyncOnce(ctx))
	require.Len(t, sinceSeen, 2)
	assert.Equal(t, updated.Format(time.RFC3339), sinceSeen[1])
	require.NoError(t, db.Model(&models.NutritionLog{}).Where("user_id = ?", "kai").Count(&n).Error)
	assert.EqualValues(t, 2, n)
	daily, err = streaks.GetUserStreak(ctx, "kai", models.StreakDailyLog)
	require.NoError(t, err)
	assert.Equal(t, 1, daily)
}

func TestNutritionSyncWorkerReportsNon200(t *testing.T) {
	db := storetest.Open(t)
	levels := models.DefaultLevelTable()
	nutrition := services.NewNutritionService(db, services.NewStreakService(db, store.NewTxProcedures(levels, time.UTC)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	worker := workers.NewNutritionSyncWorker(db, nutrition, srv.URL, "/changes", "journal-token")
	err := worker.SyncOnce(context.Background())
	assert.ErrorContains(t, err, "503")
}
