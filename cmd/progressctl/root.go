// Command progressctl operates the progression engine directly against its database.
package main

import (
	"fmt"
	"strings"

	"wellness-progression/config"
	"wellness-progression/models"
	"wellness-progression/services"
	"wellness-progression/store"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	cfg    *config.Config
	dbConn *gorm.DB
	engine *engineServices

	titleCase = cases.Title(language.English)
)

type engineServices struct {
	points       *services.PointsService
	streaks      *services.StreakService
	achievements *services.AchievementService
	badges       *services.BadgeService
}

var rootCmd = &cobra.Command{
	Use:   "progressctl",
	Short: "Operate the wellness progression engine",
	Long: `progressctl talks to the progression database directly, using the same
environment as the service (DATABASE_DRIVER, DATABASE_URL, CATALOG_PATH, ...).

EXAMPLES:

  progressctl seed                      # load the catalog into the database
  progressctl level 1200                # which level is 1200 points?
  progressctl award ada 150 "Welcome"   # credit points
  progressctl check ada                 # run achievement and badge checks
  progressctl streak ada daily_log      # read a streak
  progressctl streak ada daily_log --bump`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "level" {
			return nil
		}
		cfg = config.Load()

		var err error
		dbConn, err = store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := store.Migrate(dbConn); err != nil {
			return err
		}

		levels := store.LoadLevelTable(cmd.Context(), dbConn, models.DefaultLevelTable())
		procs := store.NewTxProcedures(levels, cfg.StreakTimezone)
		points := services.NewPointsService(dbConn, levels, procs)
		engine = &engineServices{
			points:       points,
			streaks:      services.NewStreakService(dbConn, procs),
			achievements: services.NewAchievementService(dbConn, points),
			badges:       services.NewBadgeService(dbConn, points),
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if dbConn == nil {
			return nil
		}
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, levelCmd, awardCmd, checkCmd, streakCmd)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func levelLine(t models.LevelTable, level int) string {
	l := t.LevelInfo(level)
	if l.MaxPoints == models.OpenEnded {
		return fmt.Sprintf("%d %s (%d+)", l.Level, l.Title, l.MinPoints)
	}
	return fmt.Sprintf("%d %s (%d-%d)", l.Level, l.Title, l.MinPoints, l.MaxPoints)
}
