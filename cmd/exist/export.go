// ABOUTME: CLI commands for exporting and importing exist data.
// ABOUTME: Supports JSON and YAML backups plus a per-user Markdown dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/exist/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportUser   string
	exportAll    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export exist data",
	Long: `Export exist data in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export, nested per user (human-readable)
  markdown   One user's grouped dashboard and score (requires --user)

OPTIONS:

  --output, -o   Write to file instead of stdout
  --user, -u     User to render (markdown only)
  --all          Include attributes no longer tracked (markdown only)

EXAMPLES:

  exist export json -o backup.json
  exist export yaml
  exist export markdown --user harper --all`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error

		switch format := args[0]; format {
		case "json":
			data, err = storage.ExportJSON(repo)
		case "yaml":
			data, err = storage.ExportYAML(repo)
		case "markdown":
			if exportUser == "" {
				return fmt.Errorf("markdown export requires --user")
			}
			var md string
			md, err = storage.ExportMarkdown(repo, exportUser, exportAll)
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
			return nil
		}
		fmt.Println(string(data))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import exist data from JSON",
	Long: `Import exist data from a JSON backup file.

Duplicate entries (same ID or unique name) cause an error; import into an
empty store.

EXAMPLES:

  exist import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		data, err := storage.ParseJSON(raw)
		if err != nil {
			return err
		}
		summary, err := storage.ImportAll(repo, data)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported from %s", args[0])
		printSummary(summary)
		return nil
	},
}

func printSummary(s *storage.MigrateSummary) {
	fmt.Printf("  Users: %d\n", s.Users)
	fmt.Printf("  Groups: %d\n", s.AttributeGroups)
	fmt.Printf("  Attributes: %d\n", s.Attributes)
	fmt.Printf("  Services: %d\n", s.Services)
	fmt.Printf("  Profiles: %d\n", s.Profiles)
	fmt.Printf("  Tracked attributes: %d\n", s.UserAttributes)
	fmt.Printf("  Daily values: %d\n", s.Data)
	fmt.Printf("  Events: %d\n", s.Events)
	fmt.Printf("  Log entries: %d\n", s.Logs)
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVarP(&exportUser, "user", "u", "", "user to render (markdown only)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "include attributes no longer tracked (markdown only)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
