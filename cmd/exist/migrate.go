// ABOUTME: CLI command for migrating data between storage backends.
// ABOUTME: Copies everything from the current backend into an empty destination backend.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/exist/internal/config"
	"github.com/harperreed/exist/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateTo     string
	migrateForce  bool
	migrateDryRun bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate data between SQLite and Charm KV",
	Long: `Copy all exist data from the current backend into another backend.

The current backend comes from --backend or the config file. The destination
must be empty unless --force is given; duplicates cause errors either way.

USAGE:

  exist migrate --to charm --dry-run   # Preview what would be copied
  exist migrate --to charm             # Copy SQLite data to Charm KV
  exist --backend charm migrate --to sqlite

AFTER MIGRATION:

  Switch backends by setting "backend" in ~/.config/exist/config.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from := cfg.GetBackend()
		if migrateTo != config.BackendSQLite && migrateTo != config.BackendCharm {
			return fmt.Errorf("unknown destination backend: %q (use sqlite or charm)", migrateTo)
		}
		if migrateTo == from {
			return fmt.Errorf("source and destination are both %s", from)
		}

		dst := *cfg
		dst.Backend = migrateTo

		if !migrateForce {
			occupied, err := destinationHasData(&dst)
			if err != nil {
				return err
			}
			if occupied {
				return fmt.Errorf("destination %s already has data (use --force to merge anyway)", migrateTo)
			}
		}

		if migrateDryRun {
			data, err := storage.ExportAll(repo)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", from, err)
			}
			color.Yellow("Dry run mode - no changes will be made")
			fmt.Printf("Would copy from %s to %s:\n", from, migrateTo)
			printSummary(&storage.MigrateSummary{
				Users:           len(data.Users),
				AttributeGroups: len(data.AttributeGroups),
				Attributes:      len(data.Attributes),
				Services:        len(data.Services),
				Profiles:        len(data.Profiles),
				UserAttributes:  len(data.UserAttributes),
				Data:            len(data.Data),
				Events:          len(data.Events),
				Logs:            len(data.Logs),
			})
			return nil
		}

		target, err := dst.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", migrateTo, err)
		}
		defer target.Close()

		logger.Info("migrating", "from", from, "to", migrateTo)
		summary, err := storage.MigrateData(repo, target)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated %s to %s", from, migrateTo)
		printSummary(summary)
		return nil
	},
}

// destinationHasData reports whether the destination backend already holds data.
func destinationHasData(c *config.Config) (bool, error) {
	if c.GetBackend() == config.BackendCharm {
		return storage.IsDirNonEmpty(c.CharmDir())
	}
	info, err := os.Stat(c.DBPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() > 0, nil
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "destination backend: sqlite or charm")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "copy even if the destination has data")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	_ = migrateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCmd)
}
