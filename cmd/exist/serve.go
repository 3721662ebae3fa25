// ABOUTME: CLI command for starting the REST API server.
// ABOUTME: Serves users, dashboards and Prometheus metrics until interrupted.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/harperreed/exist/internal/api"
	"github.com/harperreed/exist/internal/logging"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

ENDPOINTS:

  GET /users                          List users
  GET /users/{username}               A user's high-priority attributes and score
  GET /users/{username}/attributes    Attributes grouped for display (?all=1 includes inactive)
  GET /users/{username}/score         Score with contributing attributes
  GET /healthz                        Liveness check
  GET /metrics                        Prometheus metrics

The address defaults to listen_addr from the config file (127.0.0.1:8080).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.GetListenAddr()
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := api.NewServer(repo, logging.Component(logger, "api"))
		return server.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
