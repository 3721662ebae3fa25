// ABOUTME: CLI commands for managing users.
// ABOUTME: Adds and lists the people whose attributes are tracked.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/exist/internal/models"
	"github.com/spf13/cobra"
)

var (
	userEmail    string
	userTimezone string
	userPublic   bool
)

var userCmd = &cobra.Command{
	Use:     "user",
	Aliases: []string{"u"},
	Short:   "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user",
	Long: `Add a user. Usernames may contain letters, digits and underscores.
Users are private unless --public is given.

Examples:
  exist user add harper
  exist user add harper --email harper@example.com --timezone America/Chicago`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := models.NewUser(args[0])
		if userEmail != "" {
			u.WithEmail(userEmail)
		}
		if userTimezone != "" {
			u.WithTimezone(userTimezone)
		}
		u.Private = !userPublic

		if err := repo.CreateUser(u); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		color.Green("✓ Added user %s", u.Username)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := repo.ListUsers()
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, u := range users {
			var flags []string
			if u.Private {
				flags = append(flags, "private")
			}
			if !u.IsActive {
				flags = append(flags, "inactive")
			}
			email := ""
			if u.Email != nil {
				email = *u.Email
			}
			fmt.Printf("%s %s %s\n", padRight(u.Username, 20), padRight(email, 30), faint.Sprint(strings.Join(flags, ", ")))
		}
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userAddCmd.Flags().StringVar(&userTimezone, "timezone", "", "timezone name (e.g. Europe/London)")
	userAddCmd.Flags().BoolVar(&userPublic, "public", false, "make the user's profile public")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
}
