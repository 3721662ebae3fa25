// ABOUTME: Entry point for the exist CLI.
// ABOUTME: Invokes the root Cobra command and exits non-zero on error.
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
