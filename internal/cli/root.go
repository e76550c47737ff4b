// Package cli wires the studioload commands.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "studioload",
	Short:   "Browser-user load generator for the Studio content platform",
	Version: version,
	Long: `Studioload simulates concurrent browser users against a Studio
content-curation deployment: session login, channel browsing, topic tree
navigation, content preview, and the create/duplicate/delete channel
lifecycle with asynchronous job polling. It reports latency and failure
rates per scenario task.

Credentials come from the LOCUST_USERNAME and LOCUST_PASSWORD environment
variables (defaults: a@a.com / a).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(cleanupCmd)
}
