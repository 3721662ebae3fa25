// ABOUTME: CLI commands for a user's grouped dashboard and score.
// ABOUTME: Both are computed by the aggregator over the user's snapshot.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/exist/internal/aggregate"
	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
	"github.com/spf13/cobra"
)

var showAll bool

var showCmd = &cobra.Command{
	Use:   "show <username>",
	Short: "Show a user's attributes grouped for display",
	Long: `Show a user's tracked attributes, grouped by attribute group, with the
current value of each. Use --all to include attributes no longer tracked.

Examples:
  exist show harper
  exist show harper --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, agg, err := storage.LoadDashboard(repo, args[0])
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}

		bold := color.New(color.Bold)
		faint := color.New(color.Faint)

		bold.Printf("%s", user.Username)
		fmt.Printf("  score %s\n", color.CyanString(storage.FormatScore(agg.Score())))

		grouping := agg.ByGroup(showAll)
		if grouping.Len() == 0 {
			fmt.Println("\nNo tracked attributes.")
			return nil
		}

		for _, g := range grouping.Groups() {
			title := g.Label
			if title == "" {
				title = g.Name
			}
			fmt.Println()
			bold.Println(title)
			for _, ua := range g.Attributes {
				value, day := "-", ""
				if v, ok := aggregate.CurrentValue(ua); ok {
					value = v.Format()
					day = aggregate.Latest(ua).Day.Format(models.DayLayout)
				}
				line := fmt.Sprintf("  %s %s %s", padRight(ua.Label(), 24), padRight(value, 12), faint.Sprint(day))
				if !ua.Active {
					line += faint.Sprint(" (inactive)")
				}
				if ua.Private {
					line += faint.Sprint(" (private)")
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <username>",
	Short: "Show a user's score",
	Long: `Show the sum of the current values of a user's high-priority attributes
(active, priority 9 or lower, not text).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, agg, err := storage.LoadDashboard(repo, args[0])
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}

		fmt.Println(storage.FormatScore(agg.Score()))

		faint := color.New(color.Faint)
		for _, ua := range agg.HighPriority() {
			v, ok := aggregate.CurrentValue(ua)
			value := "-"
			if ok {
				value = v.Format()
			}
			fmt.Printf("  %s %s\n", padRight(ua.Label(), 24), faint.Sprint(value))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showAll, "all", false, "include attributes no longer tracked")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(scoreCmd)
}
