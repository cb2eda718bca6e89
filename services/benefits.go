package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wellness-progression/metrics"
	"wellness-progression/models"
	"wellness-progression/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BenefitService struct {
	DB     *gorm.DB
	Points *PointsService
	// AllowNegativeBalance lets a benefit's points_cost overdraw the balance.
	AllowNegativeBalance bool

	catalog *catalogCache
}

func NewBenefitService(db *gorm.DB, points *PointsService, allowNegative bool) *BenefitService {
	return &BenefitService{
		DB:                   db,
		Points:               points,
		AllowNegativeBalance: allowNegative,
		catalog:              newCatalogCache(catalogCacheSize, catalogCacheTTL),
	}
}

// ListLevelBenefits returns the active catalog ordered by required level.
func (s *BenefitService) ListLevelBenefits(ctx context.Context) ([]models.LevelBenefit, error) {
	benefits := []models.LevelBenefit{}
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("level_required ASC").Order("name ASC").
		Find(&benefits).Error
	return benefits, err
}

func (s *BenefitService) GetUserLevelBenefits(ctx context.Context, userID string) ([]models.UserLevelBenefit, error) {
	rows := []models.UserLevelBenefit{}
	err := s.DB.WithContext(ctx).
		Preload("Benefit").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&rows).Error
	return rows, err
}

func (s *BenefitService) getBenefit(ctx context.Context, benefitID string) (*models.LevelBenefit, error) {
	key := "benefit:" + benefitID
	if v, ok := s.catalog.get(key); ok {
		b := v.(models.LevelBenefit)
		return &b, nil
	}

	var b models.LevelBenefit
	if err := s.DB.WithContext(ctx).Where("id = ?", benefitID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("level benefit %s: %w", benefitID, ErrNotFound)
		}
		return nil, err
	}
	s.catalog.add(key, b)
	return &b, nil
}

// UnlockLevelBenefit grants a benefit once the user's level is high enough.
// Unlocking an already unlocked benefit returns the existing row.
func (s *BenefitService) UnlockLevelBenefit(ctx context.Context, userID, benefitID string) (*models.UserLevelBenefit, error) {
	if existing, err := s.findUserBenefit(ctx, userID, benefitID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	benefit, err := s.getBenefit(ctx, benefitID)
	if err != nil {
		return nil, err
	}
	if !benefit.IsActive {
		return nil, fmt.Errorf("level benefit %s is inactive: %w", benefitID, ErrNotFound)
	}

	up, err := s.Points.GetUserPoints(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read level for %s: %w", userID, err)
	}
	level := s.Points.Levels.CalculateLevel(up.TotalPoints)
	if level < benefit.LevelRequired {
		return nil, &LevelRequirementError{UserLevel: level, RequiredLevel: benefit.LevelRequired}
	}

	row := models.UserLevelBenefit{
		UserID:    userID,
		BenefitID: benefitID,
		Status:    models.BenefitUnlocked,
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "benefit_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to unlock benefit %s for %s: %w", benefitID, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		// a concurrent unlock won the insert
		return s.findUserBenefit(ctx, userID, benefitID)
	}

	metrics.BenefitTransitions.WithLabelValues(string(models.BenefitUnlocked)).Inc()
	log.Printf("🔓 Benefit unlocked: %s → %s (level %d)", userID, benefit.Code, level)
	row.Benefit = *benefit
	return &row, nil
}

func (s *BenefitService) findUserBenefit(ctx context.Context, userID, benefitID string) (*models.UserLevelBenefit, error) {
	var row models.UserLevelBenefit
	if err := s.DB.WithContext(ctx).
		Preload("Benefit").
		Where("user_id = ? AND benefit_id = ?", userID, benefitID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UseLevelBenefit moves an unlocked benefit to used and debits its points_cost,
// both in one transaction.
func (s *BenefitService) UseLevelBenefit(ctx context.Context, userID, benefitID string, metadata models.JSON) (*models.UserLevelBenefit, error) {
	var used models.UserLevelBenefit

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Benefit").
			Where("user_id = ? AND benefit_id = ? AND status = ?", userID, benefitID, models.BenefitUnlocked).
			First(&used).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBenefitNotUnlocked
			}
			return err
		}

		cost := used.Benefit.PointsCost()
		if cost > 0 && !s.AllowNegativeBalance {
			// lock the balance so concurrent spends for the user check it one at a time
			var up models.UserPoints
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", userID).
				First(&up).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if up.TotalPoints < cost {
				return fmt.Errorf("%w: benefit costs %d, balance is %d", ErrInsufficientPoints, cost, up.TotalPoints)
			}
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":  models.BenefitUsed,
			"used_at": now,
		}
		if len(metadata) > 0 {
			updates["metadata"] = metadata
		}
		res := tx.Model(&models.UserLevelBenefit{}).
			Where("id = ? AND status = ?", used.ID, models.BenefitUnlocked).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBenefitNotUnlocked
		}

		if cost > 0 {
			if _, err := s.Points.Procedures.RecordPointsTransaction(ctx, tx, store.PointsTransactionParams{
				UserID:        userID,
				Points:        -cost,
				Type:          models.TransactionSpend,
				Reason:        "Used level benefit: " + used.Benefit.Name,
				ReferenceID:   optional(benefitID),
				ReferenceType: optional(models.RefLevelBenefit),
			}); err != nil {
				metrics.LedgerFailures.Inc()
				return err
			}
		}

		used.Status = models.BenefitUsed
		used.UsedAt = &now
		if len(metadata) > 0 {
			used.Metadata = metadata
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cost := used.Benefit.PointsCost(); cost > 0 {
		metrics.PointsAwarded.WithLabelValues(string(models.TransactionSpend)).Add(float64(cost))
	}
	metrics.BenefitTransitions.WithLabelValues(string(models.BenefitUsed)).Inc()
	log.Printf("🎁 Benefit used: %s → %s (cost %d)", userID, used.Benefit.Code, used.Benefit.PointsCost())
	return &used, nil
}

// ExpireStaleBenefits moves unlocked benefits past their expires_in_days window to expired.
func (s *BenefitService) ExpireStaleBenefits(ctx context.Context, now time.Time) (int, error) {
	var rows []models.UserLevelBenefit
	if err := s.DB.WithContext(ctx).
		Preload("Benefit").
		Where("status = ?", models.BenefitUnlocked).
		Find(&rows).Error; err != nil {
		return 0, err
	}

	expired := 0
	for _, row := range rows {
		days := row.Benefit.ExpiresInDays()
		if days <= 0 || now.Before(row.UnlockedAt.AddDate(0, 0, days)) {
			continue
		}
		res := s.DB.WithContext(ctx).Model(&models.UserLevelBenefit{}).
			Where("id = ? AND status = ?", row.ID, models.BenefitUnlocked).
			Updates(map[string]interface{}{
				"status":     models.BenefitExpired,
				"expired_at": now,
			})
		if res.Error != nil {
			return expired, fmt.Errorf("failed to expire benefit %s: %w", row.ID, res.Error)
		}
		if res.RowsAffected > 0 {
			expired++
			metrics.BenefitTransitions.WithLabelValues(string(models.BenefitExpired)).Inc()
		}
	}
	if expired > 0 {
		log.Printf("⌛ [BENEFITS] Expired %d stale benefits", expired)
	}
	return expired, nil
}
