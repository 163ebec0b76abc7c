// Package main is the entry point for the huddle service and its admin CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/huddle/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "huddle",
	Short: "huddle - the sports catalog behind the activity app",
	Long: `huddle stores the list of sports users can pick from when creating an
activity. It serves the list over HTTP and lets admins add, edit, hide and
delete sports from the command line.

Run "huddle serve" to start the service. The sports subcommands operate on
the same storage backend, configured through HUDDLE_* environment variables.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("huddle version " + version.String() + "\n")
}
