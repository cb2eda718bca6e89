package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var streakBump bool

var streakCmd = &cobra.Command{
	Use:   "streak <user-id> [type]",
	Short: "Show a user's streaks, or advance one with --bump",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID := args[0]

		if len(args) == 1 {
			rows, err := engine.streaks.GetUserStreaks(ctx, userID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No streaks yet.")
				return nil
			}
			for _, s := range rows {
				fmt.Printf("%s current %d, longest %d\n",
					padRight(titleCase.String(strings.ReplaceAll(s.StreakType, "_", " ")), 12),
					s.CurrentStreak, s.LongestStreak)
			}
			return nil
		}

		streakType := args[1]
		if streakBump {
			advanced, err := engine.streaks.UpdateUserStreak(ctx, userID, streakType)
			if err != nil {
				return err
			}
			if advanced {
				color.Green("✓ %s streak advanced", streakType)
			} else {
				color.New(color.Faint).Printf("%s streak already counted today\n", streakType)
			}
		}

		n, err := engine.streaks.GetUserStreak(ctx, userID, streakType)
		if err != nil {
			return err
		}
		fmt.Printf("🔥 %d day(s)\n", n)
		return nil
	},
}

func init() {
	streakCmd.Flags().BoolVar(&streakBump, "bump", false, "record activity for today before reading")
}
