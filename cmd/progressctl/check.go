package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <user-id>",
	Short: "Run achievement and badge checks for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := args[0]

		achievements, err := engine.achievements.CheckAndUpdateAchievements(cmd.Context(), userID)
		if err != nil {
			return err
		}
		badges, err := engine.badges.CheckAndAwardBadges(cmd.Context(), userID)
		if err != nil {
			return err
		}

		if len(achievements) == 0 && len(badges) == 0 {
			fmt.Println("Nothing new.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, a := range achievements {
			fmt.Printf("%s %s %s\n", color.GreenString("🏆"), padRight(a.Name, 28), faint.Sprintf("+%d", a.Points))
		}
		for _, ub := range badges {
			fmt.Printf("%s %s %s\n", color.MagentaString("🎖"), padRight(ub.Badge.Name, 28),
				faint.Sprintf("%s +%d", titleCase.String(string(ub.Badge.Rarity)), ub.Badge.Points))
		}
		return nil
	},
}
