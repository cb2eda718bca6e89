package handlers

import (
	"wellness-progression/services"

	"github.com/gofiber/fiber/v2"
)

func setupAchievementRoutes(user fiber.Router, achievements *services.AchievementService, badges *services.BadgeService) {
	user.Get("/achievements", func(c *fiber.Ctx) error {
		rows, err := achievements.GetUserAchievements(c.UserContext(), currentUser(c))
		return listOrEmpty(c, "user achievements", rows, err)
	})

	user.Post("/achievements/check", func(c *fiber.Ctx) error {
		earned, err := achievements.CheckAndUpdateAchievements(c.UserContext(), currentUser(c))
		if err != nil {
			return writeError(c, "achievement check failed", err)
		}
		return c.JSON(fiber.Map{
			"new_achievements": nonNil(earned),
			"count":            len(earned),
		})
	})

	user.Post("/achievements/displayed", func(c *fiber.Ctx) error {
		var req struct {
			AchievementIDs []string `json:"achievement_ids"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, err)
			}
		}
		n, err := achievements.MarkAchievementsDisplayed(c.UserContext(), currentUser(c), req.AchievementIDs)
		if err != nil {
			return writeError(c, "failed to mark achievements displayed", err)
		}
		return c.JSON(fiber.Map{"updated": n})
	})

	user.Get("/badges", func(c *fiber.Ctx) error {
		rows, err := badges.GetUserBadges(c.UserContext(), currentUser(c))
		return listOrEmpty(c, "user badges", rows, err)
	})

	user.Post("/badges/check", func(c *fiber.Ctx) error {
		unlocked, err := badges.CheckAndAwardBadges(c.UserContext(), currentUser(c))
		if err != nil {
			return writeError(c, "badge check failed", err)
		}
		return c.JSON(fiber.Map{
			"new_badges": nonNil(unlocked),
			"count":      len(unlocked),
		})
	})

	user.Post("/badges/:id/equip", func(c *fiber.Ctx) error {
		var req struct {
			Equip *bool `json:"equip"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, err)
			}
		}
		equip := true
		if req.Equip != nil {
			equip = *req.Equip
		}
		ub, err := badges.EquipBadge(c.UserContext(), currentUser(c), c.Params("id"), equip)
		if err != nil {
			return writeError(c, "failed to equip badge", err)
		}
		return c.JSON(ub)
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
