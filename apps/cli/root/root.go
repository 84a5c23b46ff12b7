package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the VCP admin CLI. Subcommands (bootstrap, sweep, token) are attached here.
var rootCmd = &cobra.Command{
	Use:           "vcp",
	Short:         "VCP admin CLI",
	Long:          "Administrative utilities for the VCP backend (schema bootstrap, expiry sweep, dev tokens).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
