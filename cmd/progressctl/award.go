package main

import (
	"fmt"
	"strconv"

	"wellness-progression/models"
	"wellness-progression/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var awardCmd = &cobra.Command{
	Use:   "award <user-id> <points> [reason]",
	Short: "Credit points to a user",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || points <= 0 {
			return fmt.Errorf("points must be a positive integer: %s", args[1])
		}
		reason := "Manual grant"
		if len(args) == 3 {
			reason = args[2]
		}

		res, err := engine.points.AwardPoints(cmd.Context(), services.AwardRequest{
			UserID:        args[0],
			Points:        points,
			Reason:        reason,
			ReferenceType: models.RefAdminGrant,
		})
		if err != nil {
			return err
		}

		color.Green("✓ Awarded %d points to %s", points, args[0])
		if res.Points != nil {
			fmt.Printf("  total %d, level %s\n", res.Points.TotalPoints, levelLine(engine.points.Levels, res.NewLevel))
		}
		if res.LevelUp {
			color.Yellow("  ⬆ level up!")
		}
		return nil
	},
}
