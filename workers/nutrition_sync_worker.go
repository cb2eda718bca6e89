// workers/nutrition_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"wellness-progression/models"
	"wellness-progression/services"
	"wellness-progression/utils"

	"gorm.io/gorm"
)

// RemoteNutritionLog matches one entry of the journal service's change feed.
type RemoteNutritionLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	LogDate   time.Time `json:"log_date"`
	MealType  string    `json:"meal_type"`
	Calories  int       `json:"calories"`
	ProteinG  float64   `json:"protein_g"`
	CarbsG    float64   `json:"carbs_g"`
	FatG      float64   `json:"fat_g"`
	WaterCups int       `json:"water_cups"`
	Notes     string    `json:"notes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetLogChangesResponse is the top-level structure of the change feed.
type GetLogChangesResponse struct {
	Logs []RemoteNutritionLog `json:"logs"`
}

type NutritionSyncWorker struct {
	db           *gorm.DB
	nutrition    *services.NutritionService
	baseURL      string // e.g., "http://localhost:8600"
	endpointPath string // e.g., "/api/v1/internal/nutrition-logs"
	serviceToken string
	httpClient   *http.Client
}

func NewNutritionSyncWorker(db *gorm.DB, nutrition *services.NutritionService, baseURL, endpointPath, serviceToken string) *NutritionSyncWorker {
	return &NutritionSyncWorker{
		db:           db,
		nutrition:    nutrition,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.NewHTTPClient(30 * time.Second),
	}
}

// LastSyncTime is the newest remote updated_at among synced logs, or the epoch.
func (w *NutritionSyncWorker) LastSyncTime(ctx context.Context) time.Time {
	var latest models.NutritionLog
	err := w.db.WithContext(ctx).
		Where("external_id IS NOT NULL").
		Order("updated_at DESC").
		First(&latest).Error
	if err != nil || latest.UpdatedAt.IsZero() {
		return time.Unix(0, 0)
	}
	return latest.UpdatedAt
}

// SyncOnce pulls log changes since the last synced row and stores them.
func (w *NutritionSyncWorker) SyncOnce(ctx context.Context) error {
	return w.syncBatch(ctx, w.LastSyncTime(ctx))
}

func (w *NutritionSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid nutrition sync URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	log.Printf("[SYNC] ➡️  GET %s", finalURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to journal service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("[SYNC] ❌ Journal service returned %d for %s: %s", resp.StatusCode, finalURL, string(body))
		return fmt.Errorf("journal service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var response GetLogChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode journal service response: %w", err)
	}
	if len(response.Logs) == 0 {
		log.Printf("[SYNC] ✅ No log changes since %s", sinceStr)
		return nil
	}

	entries := make([]models.NutritionLog, 0, len(response.Logs))
	for _, remote := range response.Logs {
		externalID := remote.ID
		entries = append(entries, models.NutritionLog{
			UserID:     remote.UserID,
			LogDate:    remote.LogDate,
			MealType:   models.MealType(remote.MealType),
			Calories:   remote.Calories,
			ProteinG:   remote.ProteinG,
			CarbsG:     remote.CarbsG,
			FatG:       remote.FatG,
			WaterCups:  remote.WaterCups,
			Notes:      remote.Notes,
			ExternalID: &externalID,
			Timestamps: models.Timestamps{UpdatedAt: remote.UpdatedAt},
		})
	}

	stored, err := w.nutrition.UpsertExternalLogs(ctx, entries)
	if err != nil {
		return err
	}
	log.Printf("[SYNC] ✅ Synced %d of %d log(s) since %s", stored, len(response.Logs), sinceStr)
	return nil
}
