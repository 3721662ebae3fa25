// ABOUTME: CLI commands for reference data: attribute groups, attributes and services.
// ABOUTME: Also connects users to services and lists which services can supply an attribute.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/exist/internal/aggregate"
	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
	"github.com/spf13/cobra"
)

var (
	groupPriority int

	attrType     string
	attrGroup    string
	attrPriority int
	attrPrivate  bool

	serviceDescription string
	serviceAttributes  []string
)

var groupCmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"g"},
	Short:   "Manage attribute groups",
}

var groupAddCmd = &cobra.Command{
	Use:   "add <name> <label>",
	Short: "Add an attribute group",
	Long: `Add an attribute group. Lower priorities are shown first.

Examples:
  exist group add activity Activity --priority 1
  exist group add health Health`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := models.NewAttributeGroup(args[0], args[1]).WithPriority(groupPriority)
		if err := repo.CreateAttributeGroup(g); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		color.Green("✓ Added group %s", g.Name)
		return nil
	},
}

var groupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List attribute groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := repo.ListAttributeGroups()
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		if len(groups) == 0 {
			fmt.Println("No groups found.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, g := range groups {
			fmt.Printf("%s %s %s\n", faint.Sprintf("%2d", g.Priority), padRight(g.Name, 16), g.Label)
		}
		return nil
	},
}

var attributeCmd = &cobra.Command{
	Use:     "attribute",
	Aliases: []string{"attr"},
	Short:   "Manage attributes",
}

var attributeAddCmd = &cobra.Command{
	Use:   "add <name> <label>",
	Short: "Add an attribute",
	Long: `Add a trackable attribute.

VALUE TYPES:

  integer        whole numbers (default)
  float          decimal numbers
  string         free text (never counted in the score)
  period         minutes, entered as 90 or 1h30m
  time_midnight  time of day as minutes after midnight, entered as 23:15
  percentage     entered as 85 or 85%
  time_midday    time of day as minutes after midday, entered as 01:00

Attributes with priority 9 or lower count towards the score.

Examples:
  exist attribute add steps Steps --group activity --priority 1
  exist attribute add sleep "Time asleep" --type period --group health
  exist attribute add weather Weather --type string`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vt, err := models.ParseValueType(attrType)
		if err != nil {
			return err
		}

		a := models.NewAttribute(args[0], args[1], vt).WithPriority(attrPriority).WithPrivateDefault(attrPrivate)
		if attrGroup != "" {
			g, err := repo.GetAttributeGroup(attrGroup)
			if err != nil {
				return fmt.Errorf("unknown group: %s", attrGroup)
			}
			a.WithGroup(g)
		}

		if err := repo.CreateAttribute(a); err != nil {
			return fmt.Errorf("failed to create attribute: %w", err)
		}
		color.Green("✓ Added attribute %s", a.Name)
		fmt.Printf("  %s, priority %d\n", vt, a.Priority)
		return nil
	},
}

var attributeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List attributes",
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, err := repo.ListAttributes()
		if err != nil {
			return fmt.Errorf("failed to list attributes: %w", err)
		}
		if len(attrs) == 0 {
			fmt.Println("No attributes found.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, a := range attrs {
			group := "-"
			if a.Group != nil {
				group = a.Group.Name
			}
			fmt.Printf("%s %s %s %s %s\n",
				faint.Sprintf("%2d", a.Priority),
				padRight(a.Name, 16),
				padRight(truncate(a.Label, 24), 24),
				padRight(group, 12),
				faint.Sprint(a.ValueType.Name()))
		}
		return nil
	},
}

var attributeServicesCmd = &cobra.Command{
	Use:   "services <username> <attribute>",
	Short: "List connected services that can supply an attribute",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, ua, err := lookupTracked(args[0], args[1])
		if err != nil {
			return err
		}
		profiles, err := repo.ListProfiles(u.ID)
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}
		services, err := repo.ListServices()
		if err != nil {
			return fmt.Errorf("failed to list services: %w", err)
		}

		available := aggregate.AvailableServices(ua, profiles, services)
		if len(available) == 0 {
			fmt.Printf("No connected services supply %s.\n", ua.Label())
			return nil
		}
		for _, s := range available {
			fmt.Printf("%s %s\n", padRight(s.Slug, 16), s.Name)
		}
		return nil
	},
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage services",
}

var serviceAddCmd = &cobra.Command{
	Use:   "add <slug> <name>",
	Short: "Add a service",
	Long: `Add an external service and the attributes it can supply.

Examples:
  exist service add fitbit Fitbit --attributes steps,sleep`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := models.NewService(args[0], args[1])
		if serviceDescription != "" {
			s.WithDescription(serviceDescription)
		}
		for _, name := range serviceAttributes {
			a, err := lookupAttribute(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			s.WithAttributes(a)
		}

		if err := repo.CreateService(s); err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		color.Green("✓ Added service %s", s.Slug)
		return nil
	},
}

var serviceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List services",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := repo.ListServices()
		if err != nil {
			return fmt.Errorf("failed to list services: %w", err)
		}
		if len(services) == 0 {
			fmt.Println("No services found.")
			return nil
		}
		faint := color.New(color.Faint)
		for _, s := range services {
			fmt.Printf("%s %s %s\n", padRight(s.Slug, 16), padRight(s.Name, 20),
				faint.Sprintf("%d attributes", len(s.AttributeIDs)))
		}
		return nil
	},
}

var serviceConnectCmd = &cobra.Command{
	Use:   "connect <username> <service>",
	Short: "Connect a user to a service",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUser(args[0])
		if err != nil {
			return err
		}
		s, err := repo.GetService(args[1])
		if err != nil {
			return fmt.Errorf("unknown service: %s", args[1])
		}
		err = repo.CreateProfile(models.NewProfile(u.ID, s.ID))
		if errors.Is(err, storage.ErrConflict) {
			fmt.Printf("%s is already connected to %s\n", u.Username, s.Name)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to connect service: %w", err)
		}
		color.Green("✓ Connected %s to %s", u.Username, s.Name)
		return nil
	},
}

func init() {
	groupAddCmd.Flags().IntVar(&groupPriority, "priority", models.DefaultPriority, "display priority (lower first)")
	groupCmd.AddCommand(groupAddCmd)
	groupCmd.AddCommand(groupListCmd)

	attributeAddCmd.Flags().StringVarP(&attrType, "type", "t", "integer", "value type")
	attributeAddCmd.Flags().StringVar(&attrGroup, "group", "", "attribute group name")
	attributeAddCmd.Flags().IntVar(&attrPriority, "priority", models.DefaultPriority, "display priority (lower first)")
	attributeAddCmd.Flags().BoolVar(&attrPrivate, "private", false, "new subscriptions are private by default")
	attributeCmd.AddCommand(attributeAddCmd)
	attributeCmd.AddCommand(attributeListCmd)
	attributeCmd.AddCommand(attributeServicesCmd)

	serviceAddCmd.Flags().StringVar(&serviceDescription, "description", "", "service description")
	serviceAddCmd.Flags().StringSliceVar(&serviceAttributes, "attributes", nil, "attributes the service supplies")
	serviceCmd.AddCommand(serviceAddCmd)
	serviceCmd.AddCommand(serviceListCmd)
	serviceCmd.AddCommand(serviceConnectCmd)

	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(attributeCmd)
	rootCmd.AddCommand(serviceCmd)
}
