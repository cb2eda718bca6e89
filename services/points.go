package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"wellness-progression/metrics"
	"wellness-progression/models"
	"wellness-progression/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointsService struct {
	DB         *gorm.DB
	Levels     models.LevelTable
	Procedures store.Procedures
}

func NewPointsService(db *gorm.DB, levels models.LevelTable, procs store.Procedures) *PointsService {
	return &PointsService{DB: db, Levels: levels, Procedures: procs}
}

// GetUserPoints returns the user's points row, creating it on first access.
func (s *PointsService) GetUserPoints(ctx context.Context, userID string) (*models.UserPoints, error) {
	return s.userPoints(ctx, s.DB, userID)
}

func (s *PointsService) userPoints(ctx context.Context, db *gorm.DB, userID string) (*models.UserPoints, error) {
	var up models.UserPoints
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&up).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.initializeUserPoints(ctx, db, userID)
	}
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// InitializeUserPoints creates the zero row (idempotent) and returns the stored row.
func (s *PointsService) InitializeUserPoints(ctx context.Context, userID string) (*models.UserPoints, error) {
	return s.initializeUserPoints(ctx, s.DB, userID)
}

func (s *PointsService) initializeUserPoints(ctx context.Context, db *gorm.DB, userID string) (*models.UserPoints, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	up := models.UserPoints{
		UserID:            userID,
		TotalPoints:       0,
		CurrentLevel:      1,
		PointsToNextLevel: s.Levels.PointsForNextLevel(0),
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&up).Error; err != nil {
		return nil, fmt.Errorf("failed to initialize points for %s: %w", userID, err)
	}

	var stored models.UserPoints
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// AwardRequest describes an earn: points must be positive.
type AwardRequest struct {
	UserID        string
	Points        int64
	Reason        string
	ReferenceID   string
	ReferenceType string
	Metadata      models.JSON
}

type AwardResult struct {
	Success       bool               `json:"success"`
	NewLevel      int                `json:"new_level,omitempty"`
	LevelUp       bool               `json:"level_up"`
	TransactionID string             `json:"transaction_id,omitempty"`
	Points        *models.UserPoints `json:"points,omitempty"`
}

// AwardPoints records an earn through the ledger procedure and reports a level-up.
// On failure the result has Success=false, the error says why, and nothing was recorded.
func (s *PointsService) AwardPoints(ctx context.Context, req AwardRequest) (*AwardResult, error) {
	res, err := s.awardWith(ctx, s.DB, req)
	if err == nil {
		countAward(req.Points, res)
	}
	return res, err
}

// AwardPointsTx is AwardPoints inside the caller's transaction, so the award commits or
// rolls back together with the caller's own writes. It records no metrics; callers in
// this package count the award once their transaction commits.
func (s *PointsService) AwardPointsTx(ctx context.Context, tx *gorm.DB, req AwardRequest) (*AwardResult, error) {
	return s.awardWith(ctx, tx, req)
}

func countAward(points int64, res *AwardResult) {
	metrics.PointsAwarded.WithLabelValues(string(models.TransactionEarn)).Add(float64(points))
	if res != nil && res.LevelUp {
		metrics.LevelUps.WithLabelValues(strconv.Itoa(res.NewLevel)).Inc()
	}
}

func (s *PointsService) awardWith(ctx context.Context, db *gorm.DB, req AwardRequest) (*AwardResult, error) {
	failed := &AwardResult{Success: false}

	before, err := s.userPoints(ctx, db, req.UserID)
	if err != nil {
		return failed, fmt.Errorf("failed to read points for %s: %w", req.UserID, err)
	}
	oldLevel := before.CurrentLevel

	txID, err := s.Procedures.RecordPointsTransaction(ctx, db, store.PointsTransactionParams{
		UserID:        req.UserID,
		Points:        req.Points,
		Type:          models.TransactionEarn,
		Reason:        req.Reason,
		ReferenceID:   optional(req.ReferenceID),
		ReferenceType: optional(req.ReferenceType),
		Metadata:      req.Metadata,
	})
	if err != nil {
		metrics.LedgerFailures.Inc()
		return failed, fmt.Errorf("failed to award %d points to %s: %w", req.Points, req.UserID, err)
	}

	var after models.UserPoints
	if err := db.WithContext(ctx).Where("user_id = ?", req.UserID).First(&after).Error; err != nil {
		// the ledger write went through; only the re-read failed
		log.Printf("⚠️  [POINTS] Awarded %d to %s but re-read failed: %v", req.Points, req.UserID, err)
		return &AwardResult{Success: true, TransactionID: txID}, nil
	}

	newLevel := s.Levels.CalculateLevel(after.TotalPoints)
	result := &AwardResult{
		Success:       true,
		NewLevel:      newLevel,
		LevelUp:       newLevel > oldLevel,
		TransactionID: txID,
		Points:        &after,
	}

	log.Printf("🏅 Points awarded: %s +%d → total=%d, lvl=%d (reason: %s)",
		req.UserID, req.Points, after.TotalPoints, newLevel, req.Reason)
	if result.LevelUp {
		log.Printf("⬆️  Level up: %s %d → %d (%s)", req.UserID, oldLevel, newLevel, s.Levels.LevelInfo(newLevel).Title)
	}
	return result, nil
}

// TransactionRequest is a direct ledger entry. Points is the magnitude; the sign
// follows Type (spend debits, earn/refund credit).
type TransactionRequest struct {
	UserID        string
	Points        int64
	Type          models.TransactionType
	Reason        string
	ReferenceID   string
	ReferenceType string
	Metadata      models.JSON
}

func (r TransactionRequest) params() store.PointsTransactionParams {
	delta := r.Points
	if delta < 0 {
		delta = -delta
	}
	if r.Type == models.TransactionSpend {
		delta = -delta
	}
	return store.PointsTransactionParams{
		UserID:        r.UserID,
		Points:        delta,
		Type:          r.Type,
		Reason:        r.Reason,
		ReferenceID:   optional(r.ReferenceID),
		ReferenceType: optional(r.ReferenceType),
		Metadata:      r.Metadata,
	}
}

// CreatePointsTransaction writes one ledger entry without the level-up report.
func (s *PointsService) CreatePointsTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	params := req.params()
	id, err := s.Procedures.RecordPointsTransaction(ctx, s.DB, params)
	if err != nil {
		metrics.LedgerFailures.Inc()
		return "", fmt.Errorf("failed to record %s transaction for %s: %w", req.Type, req.UserID, err)
	}
	metrics.PointsAwarded.WithLabelValues(string(req.Type)).Add(float64(abs(params.Points)))
	return id, nil
}

// GetPointsTransactions returns a page of the ledger, newest first
func (s *PointsService) GetPointsTransactions(ctx context.Context, userID string, limit, offset int) ([]models.PointsTransaction, error) {
	switch {
	case limit < 1:
		limit = 20
	case limit > 100:
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	txs := []models.PointsTransaction{}
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

// GetPointsHistory is the recent ledger for the history screen.
func (s *PointsService) GetPointsHistory(ctx context.Context, userID string) ([]models.PointsTransaction, error) {
	return s.GetPointsTransactions(ctx, userID, 50, 0)
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	TotalPoints int64  `json:"total_points"`
	Level       int    `json:"level"`
	Title       string `json:"title"`
}

// GetLeaderboard ranks users by total points; ties share a rank.
func (s *PointsService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var rows []models.UserPoints
	if err := s.DB.WithContext(ctx).
		Order("total_points DESC").Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		rank := i + 1
		if i > 0 && r.TotalPoints == rows[i-1].TotalPoints {
			rank = entries[i-1].Rank
		}
		entries[i] = LeaderboardEntry{
			Rank:        rank,
			UserID:      r.UserID,
			TotalPoints: r.TotalPoints,
			Level:       r.CurrentLevel,
			Title:       s.Levels.LevelInfo(r.CurrentLevel).Title,
		}
	}
	return entries, nil
}

// GetUserRank is 1 + the number of users with strictly more points.
func (s *PointsService) GetUserRank(ctx context.Context, userID string) (int, error) {
	up, err := s.GetUserPoints(ctx, userID)
	if err != nil {
		return 0, err
	}
	var ahead int64
	if err := s.DB.WithContext(ctx).Model(&models.UserPoints{}).
		Where("total_points > ?", up.TotalPoints).
		Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// TransactionsSince returns ledger rows created strictly after since, oldest first.
// It backs the live points feed, so it is capped like GetPointsTransactions.
func (s *PointsService) TransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.PointsTransaction, error) {
	txs := []models.PointsTransaction{}
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, since.UTC()).
		Order("created_at ASC").
		Limit(100).
		Find(&txs).Error
	return txs, err
}
