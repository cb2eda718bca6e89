// handlers/progression_routes.go
package handlers

import (
	"wellness-progression/metrics"
	"wellness-progression/middleware"
	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// SetupProgressionRoutes registers every route. The gateway forwards paths like
// /api/v1/progression/user/points -> /user/points.
func SetupProgressionRoutes(app *fiber.App, svc Services) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// 🔓 Catalog routes: no user context, still behind the gateway token
	app.Get("/levels", func(c *fiber.Ctx) error {
		levels := svc.Points.Levels.Levels()
		rows := make([]models.LevelRow, 0, len(levels))
		for _, l := range levels {
			rows = append(rows, models.LevelRowFrom(l))
		}
		return c.JSON(rows)
	})
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := svc.Points.GetLeaderboard(c.UserContext(), queryInt(c, "limit", 10))
		return listOrEmpty(c, "leaderboard", entries, err)
	})
	app.Get("/benefits", func(c *fiber.Ctx) error {
		benefits, err := svc.Benefits.ListLevelBenefits(c.UserContext())
		return listOrEmpty(c, "benefits", benefits, err)
	})
	app.Get("/achievements", func(c *fiber.Ctx) error {
		achievements, err := svc.Achievements.ListAchievements(c.UserContext())
		return listOrEmpty(c, "achievements", achievements, err)
	})
	app.Get("/challenges", func(c *fiber.Ctx) error {
		challenges, err := svc.Challenges.ListActiveChallenges(c.UserContext())
		return listOrEmpty(c, "challenges", challenges, err)
	})

	// 🔐 Secured routes: require user context
	user := app.Group("/user", middleware.UserContextMiddleware())

	user.Get("/points", func(c *fiber.Ctx) error {
		userID := currentUser(c)
		up, err := svc.Points.GetUserPoints(c.UserContext(), userID)
		if err != nil {
			return writeError(c, "failed to get points", err)
		}
		rank, err := svc.Points.GetUserRank(c.UserContext(), userID)
		if err != nil {
			return writeError(c, "failed to get rank", err)
		}
		level := svc.Points.Levels.LevelInfo(up.CurrentLevel)
		return c.JSON(fiber.Map{
			"user_id":              up.UserID,
			"total_points":         up.TotalPoints,
			"current_level":        up.CurrentLevel,
			"level_title":          level.Title,
			"points_to_next_level": up.PointsToNextLevel,
			"is_max_level":         up.CurrentLevel >= svc.Points.Levels.MaxLevel(),
			"rank":                 rank,
		})
	})

	user.Get("/points/transactions", func(c *fiber.Ctx) error {
		txs, err := svc.Points.GetPointsTransactions(c.UserContext(), currentUser(c),
			queryInt(c, "limit", 20), queryInt(c, "offset", 0))
		return listOrEmpty(c, "points transactions", txs, err)
	})

	user.Get("/points/history", func(c *fiber.Ctx) error {
		txs, err := svc.Points.GetPointsHistory(c.UserContext(), currentUser(c))
		return listOrEmpty(c, "points history", txs, err)
	})

	user.Get("/points/stream", streamPoints(svc.Points))

	setupBenefitRoutes(user, svc.Benefits)
	setupAchievementRoutes(user, svc.Achievements, svc.Badges)
	setupChallengeRoutes(user, svc.Challenges)
	setupNutritionRoutes(user, svc.Nutrition, svc.Streaks)

	// Admin endpoints
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/points/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string      `json:"user_id"`
			Points int64       `json:"points"`
			Reason string      `json:"reason"`
			Meta   models.JSON `json:"metadata"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if req.UserID == "" || req.Points <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_id and positive points are required",
			})
		}
		if req.Reason == "" {
			req.Reason = "Admin grant"
		}

		res, err := svc.Points.AwardPoints(c.UserContext(), services.AwardRequest{
			UserID:        req.UserID,
			Points:        req.Points,
			Reason:        req.Reason,
			ReferenceID:   currentUser(c),
			ReferenceType: models.RefAdminGrant,
			Metadata:      req.Meta,
		})
		if err != nil {
			return writeError(c, "points grant failed", err)
		}
		return c.JSON(res)
	})
}
