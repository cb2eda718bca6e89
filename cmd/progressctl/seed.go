package main

import (
	"fmt"

	"wellness-progression/catalog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCatalogPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the progression catalog into the database",
	Long: `Seed upserts levels, achievements, badges, benefits and challenges by code.
Running it again updates rows in place, so it is safe to repeat after editing the catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := seedCatalogPath
		if path == "" {
			path = cfg.CatalogPath
		}
		var (
			c   *catalog.Catalog
			err error
		)
		if path == "" {
			c, err = catalog.Default()
		} else {
			c, err = catalog.Load(path)
		}
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}

		report, err := catalog.Seed(cmd.Context(), dbConn, c)
		if err != nil {
			return err
		}
		color.Green("✓ Catalog seeded")
		faint := color.New(color.Faint)
		fmt.Printf("  %s %d\n", faint.Sprint(padRight("levels", 14)), report.Levels)
		fmt.Printf("  %s %d\n", faint.Sprint(padRight("achievements", 14)), report.Achievements)
		fmt.Printf("  %s %d\n", faint.Sprint(padRight("badges", 14)), report.Badges)
		fmt.Printf("  %s %d\n", faint.Sprint(padRight("benefits", 14)), report.Benefits)
		fmt.Printf("  %s %d\n", faint.Sprint(padRight("challenges", 14)), report.Challenges)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedCatalogPath, "catalog", "c", "", "catalog TOML file (default: CATALOG_PATH or the built-in catalog)")
}
