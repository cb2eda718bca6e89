package handlers

import (
	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/gofiber/fiber/v2"
)

func setupBenefitRoutes(user fiber.Router, benefits *services.BenefitService) {
	user.Get("/benefits", func(c *fiber.Ctx) error {
		rows, err := benefits.GetUserLevelBenefits(c.UserContext(), currentUser(c))
		return listOrEmpty(c, "user benefits", rows, err)
	})

	user.Post("/benefits/:id/unlock", func(c *fiber.Ctx) error {
		row, err := benefits.UnlockLevelBenefit(c.UserContext(), currentUser(c), c.Params("id"))
		if err != nil {
			return writeError(c, "failed to unlock benefit", err)
		}
		return c.JSON(row)
	})

	user.Post("/benefits/:id/use", func(c *fiber.Ctx) error {
		var req struct {
			Metadata models.JSON `json:"metadata"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, err)
			}
		}
		row, err := benefits.UseLevelBenefit(c.UserContext(), currentUser(c), c.Params("id"), req.Metadata)
		if err != nil {
			return writeError(c, "failed to use benefit", err)
		}
		return c.JSON(row)
	})
}
