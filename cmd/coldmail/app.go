package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/coldmail/internal/tui"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Open the interactive form",
	Long:  "Full-screen form: paste a job URL, press enter, read the extracted details and the drafted email.",
	RunE:  runApp,
}

func init() {
	rootCmd.AddCommand(appCmd)
}

func runApp(cmd *cobra.Command, args []string) error {
	// Log output while the alt screen is active corrupts the display.
	logger, closeLog, err := setupQuietLogger(debug)
	if err != nil {
		setupLogger(debug, os.Stderr).Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		setupLogger(debug, os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, closePipeline, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		setupLogger(debug, os.Stderr).Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}
	defer closePipeline()

	return tui.Run(ctx, p)
}
