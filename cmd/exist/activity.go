// ABOUTME: CLI commands for events and the user activity log.
// ABOUTME: Records timestamped readings and page actions, and reports on activity.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
	"github.com/spf13/cobra"
)

var (
	eventAt    string
	eventMeta  []string
	eventLimit int

	logArgs  string
	logLimit int

	reportStart int
	reportEnd   int
	reportLimit int
)

var eventCmd = &cobra.Command{
	Use:     "event",
	Aliases: []string{"e"},
	Short:   "Record and list timestamped attribute readings",
}

var eventAddCmd = &cobra.Command{
	Use:   "add <username> <attribute> [value]",
	Short: "Record an event",
	Long: `Record a timestamped reading for an attribute, with optional metadata.

Examples:
  exist event add harper coffee 1
  exist event add harper workout --at "2025-03-01 07:30" --meta kind=run --meta km=5`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUser(args[0])
		if err != nil {
			return err
		}
		a, err := lookupAttribute(args[1])
		if err != nil {
			return err
		}

		at := time.Now()
		if eventAt != "" {
			at, err = parseTime(eventAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", eventAt)
			}
		}

		e := models.NewEvent(u.ID, a, at)
		if len(args) == 3 {
			v, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid value: %s", args[2])
			}
			e.WithValue(v)
		}
		for _, kv := range eventMeta {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid meta %q (use key=value)", kv)
			}
			e.Meta[key] = value
		}

		if err := repo.CreateEvent(e); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		color.Green("✓ Recorded %s event", a.Label)
		fmt.Printf("  %s %s\n",
			color.New(color.Faint).Sprint(e.ID.String()[:8]),
			e.Time.Format("2006-01-02 15:04"))
		return nil
	},
}

var eventListCmd = &cobra.Command{
	Use:     "list <username>",
	Aliases: []string{"ls"},
	Short:   "List a user's events",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUser(args[0])
		if err != nil {
			return err
		}
		events, err := repo.ListEvents(u.ID, eventLimit)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		names, err := attributeNames()
		if err != nil {
			return err
		}
		faint := color.New(color.Faint)
		for _, e := range events {
			value := "-"
			if e.Value != nil {
				value = strconv.FormatFloat(*e.Value, 'f', -1, 64)
			}
			fmt.Printf("%s %s %s %s\n",
				faint.Sprint(e.ID.String()[:8]),
				faint.Sprint(e.Time.Format("2006-01-02 15:04")),
				padRight(names[e.AttributeID.String()], 16),
				value)
		}
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record and report on user activity",
}

var logAddCmd = &cobra.Command{
	Use:   "add <username> <page> <action>",
	Short: "Record a page action",
	Long: `Record that a user took an action on a page.

Examples:
  exist log add harper dashboard view
  exist log add harper account_delete view`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUser(args[0])
		if err != nil {
			return err
		}
		l := models.NewUserLog(u.ID, args[1], args[2])
		if logArgs != "" {
			l.WithArgs(logArgs)
		}
		if err := repo.CreateUserLog(l); err != nil {
			return fmt.Errorf("failed to log activity: %w", err)
		}
		color.Green("✓ Logged %s %s", l.Action, l.Page)
		return nil
	},
}

var logListCmd = &cobra.Command{
	Use:     "list <username>",
	Aliases: []string{"ls"},
	Short:   "List a user's activity",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUser(args[0])
		if err != nil {
			return err
		}
		logs, err := repo.ListUserLogs(u.ID, logLimit)
		if err != nil {
			return fmt.Errorf("failed to list activity: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No activity found.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, l := range logs {
			args := ""
			if l.Args != nil {
				args = faint.Sprintf(" (%s)", truncate(*l.Args, 30))
			}
			fmt.Printf("%s %s %s%s\n",
				faint.Sprint(l.CreatedAt.Local().Format("2006-01-02 15:04")),
				padRight(l.Page, 20),
				l.Action,
				args)
		}
		return nil
	},
}

var logReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report the most active users and most popular pages",
	Long: `Report on activity between --start and --end days ago.

SECTIONS:

  Most active users    users ranked by log entries in the window
  Most active days     users ranked by distinct days with activity
  Most popular pages   page/action/args combinations ranked by hits
                       (the window ends at the start of the --end day)
  Deletion page views  active users who opened the account deletion page

Examples:
  exist log report                 # last 7 days including today
  exist log report --start 30 -n 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		period := storage.DaysAgo(now, reportStart, reportEnd)
		bold := color.New(color.Bold)
		faint := color.New(color.Faint)

		active, err := repo.MostActiveInPeriod(period, reportLimit)
		if err != nil {
			return fmt.Errorf("failed to rank users: %w", err)
		}
		bold.Println("Most active users")
		printActivity(active, "entries")

		days, err := repo.MostActiveDays(period, reportLimit)
		if err != nil {
			return fmt.Errorf("failed to rank days: %w", err)
		}
		fmt.Println()
		bold.Println("Most active days")
		printActivity(days, "days")

		pages, err := repo.MostPopularInPeriod(storage.PopularDaysAgo(now, reportStart, reportEnd), reportLimit)
		if err != nil {
			return fmt.Errorf("failed to rank pages: %w", err)
		}
		fmt.Println()
		bold.Println("Most popular pages")
		if len(pages) == 0 {
			fmt.Println("  none")
		}
		for _, p := range pages {
			args := ""
			if p.Args != nil {
				args = faint.Sprintf(" (%s)", truncate(*p.Args, 30))
			}
			fmt.Printf("  %s %s%s %s\n", padRight(p.Page, 20), p.Action, args, faint.Sprintf("%d", p.Count))
		}

		views, err := repo.ViewedDeleteInPeriod(period)
		if err != nil {
			return fmt.Errorf("failed to find deletion views: %w", err)
		}
		fmt.Println()
		bold.Println("Deletion page views")
		if len(views) == 0 {
			fmt.Println("  none")
		}
		for _, v := range views {
			fmt.Printf("  %s %s\n", padRight(v.User.Username, 20), faint.Sprint(v.ViewedAt.Local().Format("2006-01-02 15:04")))
		}
		return nil
	},
}

func printActivity(ranked []*storage.UserActivity, unit string) {
	if len(ranked) == 0 {
		fmt.Println("  none")
		return
	}
	faint := color.New(color.Faint)
	for _, a := range ranked {
		fmt.Printf("  %s %s\n", padRight(a.User.Username, 20), faint.Sprintf("%d %s", a.Count, unit))
	}
}

// attributeNames maps attribute IDs to names.
func attributeNames() (map[string]string, error) {
	attrs, err := repo.ListAttributes()
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	names := make(map[string]string, len(attrs))
	for _, a := range attrs {
		names[a.ID.String()] = a.Name
	}
	return names, nil
}

func init() {
	eventAddCmd.Flags().StringVar(&eventAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	eventAddCmd.Flags().StringArrayVar(&eventMeta, "meta", nil, "metadata as key=value (repeatable)")
	eventListCmd.Flags().IntVarP(&eventLimit, "limit", "n", 20, "max number of results")
	eventCmd.AddCommand(eventAddCmd)
	eventCmd.AddCommand(eventListCmd)

	logAddCmd.Flags().StringVar(&logArgs, "args", "", "action arguments")
	logListCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "max number of results")
	logReportCmd.Flags().IntVar(&reportStart, "start", 7, "window start, in days ago")
	logReportCmd.Flags().IntVar(&reportEnd, "end", 0, "window end, in days ago")
	logReportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 10, "max entries per section")
	logCmd.AddCommand(logAddCmd)
	logCmd.AddCommand(logListCmd)
	logCmd.AddCommand(logReportCmd)

	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(logCmd)
}
