package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/huddle/internal/app"
	"github.com/MrSnakeDoc/huddle/internal/config"
	"github.com/MrSnakeDoc/huddle/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Run the HTTP service until SIGINT or SIGTERM.

The catalog is loaded (or seeded) at startup, then refreshed every
HUDDLE_REFRESH_INTERVAL and on POST /reload.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	a, err := app.New(cmd.Context(), cfg, loggerClient)
	if err != nil {
		loggerClient.Error("huddle failed to start", logger.Error(err))
		return err
	}
	return a.Run()
}
