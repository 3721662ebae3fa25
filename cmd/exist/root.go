// ABOUTME: Root Cobra command for the exist CLI.
// ABOUTME: Loads config, sets up logging and opens the storage backend via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harperreed/exist/internal/config"
	"github.com/harperreed/exist/internal/logging"
	"github.com/harperreed/exist/internal/storage"
	"github.com/spf13/cobra"
)

// skipRepo marks commands that run without opening storage.
const skipRepo = "skip-repo"

var (
	cfg    *config.Config
	repo   storage.Repository
	logger *log.Logger

	flagBackend  string
	flagDataDir  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "exist",
	Short: "Personal attribute tracker",
	Long: `Exist tracks personal attributes (steps, sleep, mood, ...) per user,
one value per day, and rolls them up into grouped dashboards and a score.

QUICK START:

  $ exist user add harper
  $ exist group add health "Health" --priority 1
  $ exist attribute add sleep "Time asleep" --type period --group health
  $ exist track harper sleep
  $ exist record harper sleep 7h30m
  $ exist show harper
  $ exist score harper

SERVERS:

  $ exist serve     # REST API with Prometheus metrics at /metrics
  $ exist mcp       # Model Context Protocol server on stdio

STORAGE:

  SQLite (default) at ~/.local/share/exist/exist.db, or Charm KV with
  cloud sync. Choose with --backend or "backend" in
  ~/.config/exist/config.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlags(cmd, cfg)

		logger = logging.NewStderr(cfg.GetLogLevel())

		if cmd.Annotations[skipRepo] != "" || cmd.Name() == "help" {
			return nil
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		logging.Component(logger, "storage").Debug("opened", "backend", cfg.GetBackend(), "data_dir", cfg.GetDataDir())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo == nil {
			return nil
		}
		err := repo.Close()
		repo = nil
		return err
	},
}

// applyFlags overrides config values with explicitly set global flags.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		c.Backend = flagBackend
	}
	if flags.Changed("data-dir") {
		c.DataDir = flagDataDir
	}
	if flags.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: sqlite or charm")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.local/share/exist)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}
