package handlers

import (
	"errors"
	"log"
	"strconv"

	"wellness-progression/middleware"
	"wellness-progression/services"
	"wellness-progression/store"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services bundles everything the routes call into.
type Services struct {
	Points       *services.PointsService
	Benefits     *services.BenefitService
	Achievements *services.AchievementService
	Badges       *services.BadgeService
	Streaks      *services.StreakService
	Challenges   *services.ChallengeService
	Nutrition    *services.NutritionService
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	var levelErr *services.LevelRequirementError
	switch {
	case errors.As(err, &levelErr):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrBenefitNotUnlocked),
		errors.Is(err, services.ErrInsufficientPoints),
		errors.Is(err, services.ErrChallengeInProgress),
		errors.Is(err, services.ErrChallengeNotInProgress),
		errors.Is(err, services.ErrChallengeInactive),
		errors.Is(err, services.ErrBadgeLocked):
		status = fiber.StatusConflict
	case errors.Is(err, store.ErrInvalidTransaction), errors.Is(err, services.ErrInvalidLog):
		status = fiber.StatusBadRequest
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ [HTTP] %s %s: %s: %v", c.Method(), c.Path(), msg, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid JSON",
		"cause": err.Error(),
	})
}

// listOrEmpty serves a read that fails soft: errors are logged and the client gets [].
func listOrEmpty[T any](c *fiber.Ctx, what string, items []T, err error) error {
	if err != nil {
		log.Printf("⚠️  [HTTP] %s for %s failed: %v", what, c.Path(), err)
		return c.JSON([]T{})
	}
	if items == nil {
		items = []T{}
	}
	return c.JSON(items)
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func currentUser(c *fiber.Ctx) string {
	return middleware.UserID(c)
}
