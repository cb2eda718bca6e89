package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"wellness-progression/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NutritionService struct {
	DB      *gorm.DB
	Streaks *StreakService
	Now     func() time.Time
	// Location decides which calendar day a log belongs to for streaks.
	Location *time.Location
}

func NewNutritionService(db *gorm.DB, streaks *StreakService) *NutritionService {
	return &NutritionService{DB: db, Streaks: streaks, Now: time.Now, Location: time.UTC}
}

type LogResult struct {
	Log                 *models.NutritionLog `json:"log"`
	DailyStreakAdvanced bool                 `json:"daily_streak_advanced"`
	WaterStreakAdvanced bool                 `json:"water_streak_advanced"`
}

func validateLog(entry *models.NutritionLog) error {
	switch {
	case entry.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidLog)
	case entry.Calories < 0, entry.WaterCups < 0:
		return fmt.Errorf("%w: calories and water_cups must be non-negative", ErrInvalidLog)
	case entry.ProteinG < 0, entry.CarbsG < 0, entry.FatG < 0:
		return fmt.Errorf("%w: macros must be non-negative", ErrInvalidLog)
	}
	return nil
}

// loggedToday reports whether t falls on the current streak day.
func (s *NutritionService) loggedToday(t time.Time) bool {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	const day = "2006-01-02"
	return t.In(loc).Format(day) == s.Now().In(loc).Format(day)
}

// LogNutrition stores a journal entry. Entries dated today count toward streaks.
func (s *NutritionService) LogNutrition(ctx context.Context, entry *models.NutritionLog) (*LogResult, error) {
	if err := validateLog(entry); err != nil {
		return nil, err
	}
	if entry.LogDate.IsZero() {
		entry.LogDate = s.Now()
	}
	entry.LogDate = entry.LogDate.UTC()

	if err := s.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to store nutrition log for %s: %w", entry.UserID, err)
	}

	result := &LogResult{Log: entry}
	if !s.loggedToday(entry.LogDate) {
		return result, nil
	}
	var err error
	result.DailyStreakAdvanced, result.WaterStreakAdvanced, err = s.TrackStreaks(ctx, entry)
	return result, err
}

// TrackStreaks advances the daily log streak, and the water streak when the entry met
// the water goal. Repeat calls on the same day are no-ops.
func (s *NutritionService) TrackStreaks(ctx context.Context, entry *models.NutritionLog) (daily, water bool, err error) {
	if daily, err = s.Streaks.UpdateUserStreak(ctx, entry.UserID, models.StreakDailyLog); err != nil {
		return false, false, err
	}
	if entry.MetWaterGoal() {
		if water, err = s.Streaks.UpdateUserStreak(ctx, entry.UserID, models.StreakWaterGoal); err != nil {
			return daily, false, err
		}
	}
	return daily, water, nil
}

// ListNutritionLogs returns the user's logs dated at or after since, newest first.
func (s *NutritionService) ListNutritionLogs(ctx context.Context, userID string, since time.Time) ([]models.NutritionLog, error) {
	logs := []models.NutritionLog{}
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND log_date >= ?", userID, since.UTC()).
		Order("log_date DESC").
		Find(&logs).Error
	return logs, err
}

// UpsertExternalLogs stores logs pulled from the journal service keyed by external id.
// Logs dated today also count toward streaks. It returns how many logs were stored.
func (s *NutritionService) UpsertExternalLogs(ctx context.Context, entries []models.NutritionLog) (int, error) {
	stored := 0

	for i := range entries {
		entry := &entries[i]
		if entry.ExternalID == nil || *entry.ExternalID == "" {
			log.Printf("⚠️  [SYNC] Skipping log without external id for %s", entry.UserID)
			continue
		}
		if err := validateLog(entry); err != nil {
			log.Printf("⚠️  [SYNC] Skipping log %s: %v", *entry.ExternalID, err)
			continue
		}
		if entry.LogDate.IsZero() {
			entry.LogDate = s.Now()
		}
		entry.LogDate = entry.LogDate.UTC()

		if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"log_date", "meal_type", "calories", "protein_g", "carbs_g", "fat_g", "water_cups", "notes", "updated_at",
			}),
		}).Create(entry).Error; err != nil {
			return stored, fmt.Errorf("failed to upsert log %s: %w", *entry.ExternalID, err)
		}
		stored++

		if !s.loggedToday(entry.LogDate) {
			continue
		}
		if _, _, err := s.TrackStreaks(ctx, entry); err != nil {
			return stored, err
		}
	}
	return stored, nil
}
