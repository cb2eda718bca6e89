package handlers

import (
	"time"

	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/gofiber/fiber/v2"
)

func setupNutritionRoutes(user fiber.Router, nutrition *services.NutritionService, streaks *services.StreakService) {
	user.Post("/nutrition-logs", func(c *fiber.Ctx) error {
		var entry models.NutritionLog
		if err := c.BodyParser(&entry); err != nil {
			return badRequest(c, err)
		}
		// identity comes from the gateway, never the body
		entry.ID = ""
		entry.UserID = currentUser(c)
		entry.ExternalID = nil

		res, err := nutrition.LogNutrition(c.UserContext(), &entry)
		if err != nil {
			return writeError(c, "failed to log nutrition", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	user.Get("/nutrition-logs", func(c *fiber.Ctx) error {
		days := queryInt(c, "days", 7)
		if days <= 0 {
			days = 7
		}
		since := time.Now().AddDate(0, 0, -days)
		logs, err := nutrition.ListNutritionLogs(c.UserContext(), currentUser(c), since)
		return listOrEmpty(c, "nutrition logs", logs, err)
	})

	user.Get("/streaks", func(c *fiber.Ctx) error {
		rows, err := streaks.GetUserStreaks(c.UserContext(), currentUser(c))
		return listOrEmpty(c, "streaks", rows, err)
	})

	user.Get("/streaks/:type", func(c *fiber.Ctx) error {
		streakType := c.Params("type")
		n, err := streaks.GetUserStreak(c.UserContext(), currentUser(c), streakType)
		if err != nil {
			return writeError(c, "failed to get streak", err)
		}
		return c.JSON(fiber.Map{"streak_type": streakType, "current_streak": n})
	})

	user.Post("/streaks/:type", func(c *fiber.Ctx) error {
		streakType := c.Params("type")
		advanced, err := streaks.UpdateUserStreak(c.UserContext(), currentUser(c), streakType)
		if err != nil {
			return writeError(c, "failed to update streak", err)
		}
		n, err := streaks.GetUserStreak(c.UserContext(), currentUser(c), streakType)
		if err != nil {
			return writeError(c, "failed to get streak", err)
		}
		return c.JSON(fiber.Map{"streak_type": streakType, "advanced": advanced, "current_streak": n})
	})
}
