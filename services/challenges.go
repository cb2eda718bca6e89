package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wellness-progression/models"

	"gorm.io/gorm"
)

type ChallengeService struct {
	DB     *gorm.DB
	Points *PointsService
}

func NewChallengeService(db *gorm.DB, points *PointsService) *ChallengeService {
	return &ChallengeService{DB: db, Points: points}
}

func (s *ChallengeService) ListActiveChallenges(ctx context.Context) ([]models.Challenge, error) {
	challenges := []models.Challenge{}
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("difficulty ASC").Order("points ASC").
		Find(&challenges).Error
	return challenges, err
}

// GetUserChallenges lists the user's runs, optionally filtered by status.
func (s *ChallengeService) GetUserChallenges(ctx context.Context, userID string, status models.ChallengeStatus) ([]models.UserChallenge, error) {
	q := s.DB.WithContext(ctx).Preload("Challenge").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	rows := []models.UserChallenge{}
	err := q.Order("started_at DESC").Find(&rows).Error
	return rows, err
}

// StartChallenge begins a run. A user can have one in-progress run per challenge.
func (s *ChallengeService) StartChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	var uc models.UserChallenge

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Challenge
		if err := tx.Where("id = ?", challengeID).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("challenge %s: %w", challengeID, ErrNotFound)
			}
			return err
		}
		if !c.IsActive {
			return ErrChallengeInactive
		}

		var running int64
		if err := tx.Model(&models.UserChallenge{}).
			Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, models.ChallengeInProgress).
			Count(&running).Error; err != nil {
			return err
		}
		if running > 0 {
			return ErrChallengeInProgress
		}

		uc = models.UserChallenge{
			UserID:      userID,
			ChallengeID: challengeID,
			Status:      models.ChallengeInProgress,
		}
		if err := tx.Create(&uc).Error; err != nil {
			return err
		}
		uc.Challenge = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🚩 Challenge started: %s → %s", userID, uc.Challenge.Code)
	return &uc, nil
}

// UpdateChallengeProgress replaces the progress document of an in-progress run.
func (s *ChallengeService) UpdateChallengeProgress(ctx context.Context, userID, challengeID string, progress models.JSON) (*models.UserChallenge, error) {
	res := s.DB.WithContext(ctx).Model(&models.UserChallenge{}).
		Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, models.ChallengeInProgress).
		Update("progress", progress)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrChallengeNotInProgress
	}
	return s.latestRun(ctx, s.DB, userID, challengeID)
}

func (s *ChallengeService) latestRun(ctx context.Context, db *gorm.DB, userID, challengeID string) (*models.UserChallenge, error) {
	var uc models.UserChallenge
	if err := db.WithContext(ctx).
		Preload("Challenge").
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Order("started_at DESC").
		First(&uc).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

// CompleteChallenge finishes an in-progress run and credits the challenge's points
// in the same transaction.
func (s *ChallengeService) CompleteChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, *AwardResult, error) {
	var (
		uc     *models.UserChallenge
		result *AwardResult
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.UserChallenge{}).
			Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, models.ChallengeInProgress).
			Updates(map[string]interface{}{
				"status":       models.ChallengeCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrChallengeNotInProgress
		}

		var err error
		if uc, err = s.latestRun(ctx, tx, userID, challengeID); err != nil {
			return err
		}
		if uc.Challenge.Points <= 0 {
			result = &AwardResult{Success: true}
			return nil
		}
		result, err = s.Points.AwardPointsTx(ctx, tx, AwardRequest{
			UserID:        userID,
			Points:        uc.Challenge.Points,
			Reason:        "Challenge completed: " + uc.Challenge.Title,
			ReferenceID:   challengeID,
			ReferenceType: models.RefChallenge,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if uc.Challenge.Points > 0 {
		countAward(uc.Challenge.Points, result)
	}
	log.Printf("✅ Challenge completed: %s → %s (+%d)", userID, uc.Challenge.Code, uc.Challenge.Points)
	return uc, result, nil
}

func (s *ChallengeService) FailChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	res := s.DB.WithContext(ctx).Model(&models.UserChallenge{}).
		Where("user_id = ? AND challenge_id = ? AND status = ?", userID, challengeID, models.ChallengeInProgress).
		Update("status", models.ChallengeFailed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrChallengeNotInProgress
	}
	return s.latestRun(ctx, s.DB, userID, challengeID)
}
