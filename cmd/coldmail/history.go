package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long:  "Lists recent runs from the history database. Requires history.enabled: true in config.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, os.Stderr)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !cfg.History.Enabled {
		fmt.Println("History is disabled. Set history.enabled: true in config.yaml to record runs.")
		return nil
	}

	historyStore, closeStore, err := setupStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	entries, err := historyStore.Recent(historyLimit)
	if err != nil {
		logger.Error("failed to read history", "error", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("%-19s  %-12s  %-4s  %s\n", "When", "Status", "Jobs", "URL")
	for _, e := range entries {
		fmt.Printf("%-19s  %-12s  %-4d  %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Status, e.JobCount, e.URL)
	}
	fmt.Printf("\nShowing %d most recent runs\n", len(entries))
	return nil
}
