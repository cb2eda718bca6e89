package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wellness-progression/metrics"
	"wellness-progression/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeMetrics are the counters badge rules are measured against.
type BadgeMetrics struct {
	NutritionAchievements int
	LongestStreak         int
}

// BadgeRule unlocks the badge with Code once Metric reaches Threshold.
type BadgeRule struct {
	Code      string
	Threshold int
	Metric    func(BadgeMetrics) int
}

var DefaultBadgeRules = []BadgeRule{
	{
		Code:      "nutrition-guru",
		Threshold: 10,
		Metric:    func(m BadgeMetrics) int { return m.NutritionAchievements },
	},
	{
		Code:      "streak-master",
		Threshold: 30,
		Metric:    func(m BadgeMetrics) int { return m.LongestStreak },
	},
}

type BadgeService struct {
	DB     *gorm.DB
	Points *PointsService
	Rules  []BadgeRule

	catalog *catalogCache
}

func NewBadgeService(db *gorm.DB, points *PointsService) *BadgeService {
	return &BadgeService{
		DB:      db,
		Points:  points,
		Rules:   DefaultBadgeRules,
		catalog: newCatalogCache(catalogCacheSize, catalogCacheTTL),
	}
}

func (s *BadgeService) badgeByCode(ctx context.Context, code string) (*models.Badge, error) {
	key := "badge:" + code
	if v, ok := s.catalog.get(key); ok {
		b := v.(models.Badge)
		return &b, nil
	}
	var b models.Badge
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&b).Error; err != nil {
		return nil, err
	}
	s.catalog.add(key, b)
	return &b, nil
}

func (s *BadgeService) loadMetrics(ctx context.Context, userID string) (BadgeMetrics, error) {
	var m BadgeMetrics

	var nutrition int64
	if err := s.DB.WithContext(ctx).Model(&models.UserAchievement{}).
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ? AND achievements.category = ?", userID, models.CategoryNutrition).
		Count(&nutrition).Error; err != nil {
		return m, err
	}
	m.NutritionAchievements = int(nutrition)

	var longest int64
	if err := s.DB.WithContext(ctx).Model(&models.NutritionStreak{}).
		Select("COALESCE(MAX(longest_streak), 0)").
		Where("user_id = ?", userID).
		Row().Scan(&longest); err != nil {
		return m, err
	}
	m.LongestStreak = int(longest)
	return m, nil
}

// CheckAndAwardBadges advances progress on every badge rule and returns the badges
// this call unlocked. Badge points are credited on the unlocking transition only.
func (s *BadgeService) CheckAndAwardBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	m, err := s.loadMetrics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load badge metrics for %s: %w", userID, err)
	}

	unlocked := []models.UserBadge{}
	for _, rule := range s.Rules {
		badge, err := s.badgeByCode(ctx, rule.Code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️  [BADGES] Badge %q is not in the catalog, skipping", rule.Code)
			continue
		}
		if err != nil {
			return unlocked, err
		}

		ub, justUnlocked, err := s.advance(ctx, userID, badge, rule.Metric(m), rule.Threshold)
		if err != nil {
			return unlocked, fmt.Errorf("failed to update badge %s for %s: %w", rule.Code, userID, err)
		}
		if justUnlocked {
			metrics.BadgesUnlocked.WithLabelValues(string(badge.Rarity)).Inc()
			log.Printf("🎖️ Badge unlocked: %s → %s", userID, badge.Code)
			unlocked = append(unlocked, *ub)
		}
	}
	return unlocked, nil
}

func (s *BadgeService) advance(ctx context.Context, userID string, badge *models.Badge, value, total int) (*models.UserBadge, bool, error) {
	if value > total {
		value = total
	}
	var (
		ub           models.UserBadge
		justUnlocked bool
		award        *AwardResult
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.UserBadge{UserID: userID, BadgeID: badge.ID, Progress: 0, Total: total}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND badge_id = ?", userID, badge.ID).
			First(&ub).Error; err != nil {
			return err
		}
		if ub.Unlocked() {
			return nil
		}

		progress := ub.Progress
		if value > progress {
			progress = value
		}
		updates := map[string]interface{}{"progress": progress, "total": total}
		if progress >= total {
			updates["unlocked_at"] = time.Now()
		}
		res := tx.Model(&models.UserBadge{}).
			Where("id = ? AND unlocked_at IS NULL", ub.ID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("id = ?", ub.ID).First(&ub).Error; err != nil {
			return err
		}
		if progress < total || res.RowsAffected == 0 {
			return nil
		}
		justUnlocked = true

		if badge.Points <= 0 {
			return nil
		}
		var err error
		award, err = s.Points.AwardPointsTx(ctx, tx, AwardRequest{
			UserID:        userID,
			Points:        badge.Points,
			Reason:        "Badge unlocked: " + badge.Name,
			ReferenceID:   badge.ID,
			ReferenceType: models.RefBadge,
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if award != nil {
		countAward(badge.Points, award)
	}
	ub.Badge = *badge
	return &ub, justUnlocked, nil
}

func (s *BadgeService) GetUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	rows := []models.UserBadge{}
	err := s.DB.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&rows).Error
	return rows, err
}

// EquipBadge toggles whether an unlocked badge shows on the user's profile.
func (s *BadgeService) EquipBadge(ctx context.Context, userID, badgeID string, equip bool) (*models.UserBadge, error) {
	var ub models.UserBadge
	if err := s.DB.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		First(&ub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("badge %s: %w", badgeID, ErrNotFound)
		}
		return nil, err
	}
	if !ub.Unlocked() {
		return nil, ErrBadgeLocked
	}
	if err := s.DB.WithContext(ctx).Model(&models.UserBadge{}).
		Where("id = ?", ub.ID).
		Update("is_equipped", equip).Error; err != nil {
		return nil, err
	}
	ub.IsEquipped = equip
	return &ub, nil
}
