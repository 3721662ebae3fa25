// ABOUTME: CLI command for printing the build version.
// ABOUTME: The version is set at build time with -ldflags.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipRepo: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("exist", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
