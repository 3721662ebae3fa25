// ABOUTME: CLI commands for a user's tracked attributes and their daily values.
// ABOUTME: Covers track, untrack, private, record and history.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/exist/internal/models"
	"github.com/spf13/cobra"
)

var (
	trackService string
	trackPrivate bool

	privateOff bool

	recordDay string

	historyLimit int
)

var trackCmd = &cobra.Command{
	Use:   "track <username> <attribute>",
	Short: "Start tracking an attribute for a user",
	Long: `Start tracking an attribute. Tracking an attribute that was untracked
re-activates the existing subscription and keeps its history.

Examples:
  exist track harper sleep
  exist track harper steps --service fitbit
  exist track harper weight --private`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUser(args[0])
		if err != nil {
			return err
		}
		a, err := lookupAttribute(args[1])
		if err != nil {
			return err
		}

		var service *models.Service
		if trackService != "" {
			service, err = repo.GetService(trackService)
			if err != nil {
				return fmt.Errorf("unknown service: %s", trackService)
			}
		}

		ua, err := findSubscription(u.ID, a.ID, service)
		if err != nil {
			return err
		}
		if ua != nil {
			ua.Active = true
			if cmd.Flags().Changed("private") {
				ua.Private = trackPrivate
			}
			if err := repo.UpdateUserAttribute(ua); err != nil {
				return fmt.Errorf("failed to update tracking: %w", err)
			}
			color.Green("✓ %s is tracking %s again", u.Username, a.Label)
			return nil
		}

		ua = models.NewUserAttribute(u.ID, a).WithService(service)
		if cmd.Flags().Changed("private") {
			ua.Private = trackPrivate
		}
		if err := repo.CreateUserAttribute(ua); err != nil {
			return fmt.Errorf("failed to track attribute: %w", err)
		}
		color.Green("✓ %s is tracking %s", u.Username, a.Label)
		return nil
	},
}

var untrackCmd = &cobra.Command{
	Use:   "untrack <username> <attribute>",
	Short: "Stop tracking an attribute (history is kept)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, ua, err := lookupTracked(args[0], args[1])
		if err != nil {
			return err
		}
		ua.Active = false
		if err := repo.UpdateUserAttribute(ua); err != nil {
			return fmt.Errorf("failed to update tracking: %w", err)
		}
		color.Green("✓ %s stopped tracking %s", u.Username, ua.Label())
		return nil
	},
}

var privateCmd = &cobra.Command{
	Use:   "private <username> <attribute>",
	Short: "Hide an attribute from public views",
	Long: `Mark a tracked attribute private, or public again with --off.

Examples:
  exist private harper weight
  exist private harper weight --off`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, ua, err := lookupTracked(args[0], args[1])
		if err != nil {
			return err
		}
		ua.Private = !privateOff
		if err := repo.UpdateUserAttribute(ua); err != nil {
			return fmt.Errorf("failed to update privacy: %w", err)
		}
		state := "private"
		if privateOff {
			state = "public"
		}
		color.Green("✓ %s's %s is now %s", u.Username, ua.Label(), state)
		return nil
	},
}

var recordCmd = &cobra.Command{
	Use:     "record <username> <attribute> <value>",
	Aliases: []string{"r"},
	Short:   "Record a day's value for a tracked attribute",
	Long: `Record a value. Each attribute holds one value per day; recording again
for the same day replaces it.

Examples:
  exist record harper steps 9500
  exist record harper sleep 7h30m --day 2025-03-01
  exist record harper bedtime 23:15
  exist record harper productivity 85%`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ua, err := lookupTracked(args[0], args[1])
		if err != nil {
			return err
		}
		day, err := parseDay(recordDay)
		if err != nil {
			return err
		}

		v, err := models.ParseValue(ua.ValueType(), args[2])
		if err != nil {
			return err
		}
		d := models.NewUserAttributeData(ua, day)
		if err := d.SetValue(v.Interface()); err != nil {
			return err
		}
		if err := repo.PutUserAttributeData(d); err != nil {
			return fmt.Errorf("failed to record value: %w", err)
		}

		color.Green("✓ Recorded %s", ua.Label())
		fmt.Printf("  %s %s\n", color.New(color.Faint).Sprint(d.Day.Format(models.DayLayout)), d.Value().Format())
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <username> <attribute>",
	Short: "Show recent values for a tracked attribute",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ua, err := lookupTracked(args[0], args[1])
		if err != nil {
			return err
		}
		data, err := repo.ListUserAttributeData(ua.ID, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list values: %w", err)
		}
		if len(data) == 0 {
			fmt.Printf("No values recorded for %s.\n", ua.Label())
			return nil
		}

		faint := color.New(color.Faint)
		for _, d := range data {
			fmt.Printf("%s %s\n", faint.Sprint(d.Day.Format(models.DayLayout)), d.Value().Format())
		}
		return nil
	},
}

// findSubscription returns the user's subscription to an attribute through
// the given service (nil for manual entry), or nil when there is none.
func findSubscription(userID, attributeID uuid.UUID, service *models.Service) (*models.UserAttribute, error) {
	records, err := repo.ListUserAttributes(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attributes: %w", err)
	}
	for _, ua := range records {
		if ua.AttributeID != attributeID {
			continue
		}
		switch {
		case service == nil && ua.ServiceID == nil:
			return ua, nil
		case service != nil && ua.ServiceID != nil && *ua.ServiceID == service.ID:
			return ua, nil
		}
	}
	return nil, nil
}

func init() {
	trackCmd.Flags().StringVar(&trackService, "service", "", "service that supplies the values")
	trackCmd.Flags().BoolVar(&trackPrivate, "private", false, "hide the attribute from public views")
	privateCmd.Flags().BoolVar(&privateOff, "off", false, "make the attribute public again")
	recordCmd.Flags().StringVar(&recordDay, "day", "", "day to record (YYYY-MM-DD, default today)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max number of days")

	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(untrackCmd)
	rootCmd.AddCommand(privateCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(historyCmd)
}
