package handlers

import (
	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/gofiber/fiber/v2"
)

// Challenge routes address runs by challenge id; the service resolves the user's latest run.
func setupChallengeRoutes(user fiber.Router, challenges *services.ChallengeService) {
	user.Get("/challenges", func(c *fiber.Ctx) error {
		rows, err := challenges.GetUserChallenges(c.UserContext(), currentUser(c), models.ChallengeStatus(c.Query("status")))
		return listOrEmpty(c, "user challenges", rows, err)
	})

	user.Post("/challenges/:id/start", func(c *fiber.Ctx) error {
		uc, err := challenges.StartChallenge(c.UserContext(), currentUser(c), c.Params("id"))
		if err != nil {
			return writeError(c, "failed to start challenge", err)
		}
		return c.Status(fiber.StatusCreated).JSON(uc)
	})

	user.Post("/challenges/:id/progress", func(c *fiber.Ctx) error {
		var req struct {
			Progress models.JSON `json:"progress"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		uc, err := challenges.UpdateChallengeProgress(c.UserContext(), currentUser(c), c.Params("id"), req.Progress)
		if err != nil {
			return writeError(c, "failed to update challenge progress", err)
		}
		return c.JSON(uc)
	})

	user.Post("/challenges/:id/complete", func(c *fiber.Ctx) error {
		uc, award, err := challenges.CompleteChallenge(c.UserContext(), currentUser(c), c.Params("id"))
		if err != nil {
			return writeError(c, "failed to complete challenge", err)
		}
		return c.JSON(fiber.Map{
			"challenge": uc,
			"award":     award,
		})
	})

	user.Post("/challenges/:id/fail", func(c *fiber.Ctx) error {
		uc, err := challenges.FailChallenge(c.UserContext(), currentUser(c), c.Params("id"))
		if err != nil {
			return writeError(c, "failed to fail challenge", err)
		}
		return c.JSON(uc)
	})
}
