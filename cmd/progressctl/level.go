package main

import (
	"fmt"
	"strconv"

	"wellness-progression/catalog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var levelCatalogPath string

var levelCmd = &cobra.Command{
	Use:   "level [points]",
	Short: "Show the level table, or the level for a point total",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Default()
		if levelCatalogPath != "" {
			c, err = catalog.Load(levelCatalogPath)
		}
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		table, err := c.LevelTable()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			for _, l := range table.Levels() {
				fmt.Println(levelLine(table, l.Level))
			}
			return nil
		}

		points, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid points: %s", args[0])
		}
		level := table.CalculateLevel(points)
		color.Cyan("Level %s", levelLine(table, level))
		if next := table.PointsForNextLevel(points); next > 0 {
			fmt.Printf("  %s to level %d\n", color.New(color.Faint).Sprintf("%d points", next), level+1)
		} else {
			fmt.Println("  max level")
		}
		return nil
	},
}

func init() {
	levelCmd.Flags().StringVarP(&levelCatalogPath, "catalog", "c", "", "catalog TOML file (default: built-in catalog)")
}
