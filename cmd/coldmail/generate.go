package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/amishk599/coldmail/internal/config"
	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/tui"
)

var (
	generateJSON  bool
	generateQuiet bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <url>",
	Short: "Draft a cold email for one job posting and exit",
	Long: "One-shot run: fetches the posting, extracts the job details, drafts the email and prints all of it.\n" +
		"Exits non-zero when the page could not be fetched or no job details were extracted.",
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "print the result as JSON")
	generateCmd.Flags().BoolVarP(&generateQuiet, "quiet", "q", false, "do not show a spinner while working")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// stdout carries the result; logs go to stderr.
	logger := setupLogger(debug, os.Stderr)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var url string
	if len(args) > 0 {
		url = args[0]
	}

	// Exit only after generate's deferred cleanup has closed the history store.
	if code := generate(cfg, url, logger); code != 0 {
		os.Exit(code)
	}
	return nil
}

// generate runs the pipeline once, prints the result and returns the process exit code.
func generate(cfg *config.Config, url string, logger *slog.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, closePipeline, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		return 1
	}
	defer closePipeline()

	var result *model.Result
	if generateJSON || generateQuiet || !isatty.IsTerminal(os.Stdout.Fd()) {
		result = p.Run(ctx, url)
	} else {
		result, err = tui.RunWithLoader(ctx, p, url)
		if err != nil {
			logger.Error("generate interrupted", "error", err)
			return 1
		}
	}

	if generateJSON {
		err = writeResultJSON(os.Stdout, result)
	} else {
		err = writeResultText(os.Stdout, result)
	}
	if err != nil {
		logger.Error("failed to write result", "error", err)
		return 1
	}
	return exitCode(result.Status)
}

// exitCode is non-zero only for outcomes shown as errors.
func exitCode(status model.Status) int {
	switch status {
	case model.StatusFetchFailed, model.StatusNoJobs:
		return 1
	default:
		return 0
	}
}

func writeResultJSON(w io.Writer, r *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeResultText(w io.Writer, r *model.Result) error {
	icon := "❌"
	switch {
	case r.Status == model.StatusOK:
		icon = "✅"
	case r.Status.IsWarning():
		icon = "⚠️"
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", icon, r.Message); err != nil {
		return err
	}

	if r.Preview != "" {
		if _, err := fmt.Fprintf(w, "\n== Extracted Job Description ==\n%s\n", r.Preview); err != nil {
			return err
		}
	}
	if len(r.Jobs) > 0 {
		pretty, err := json.MarshalIndent(r.Jobs, "", "  ")
		if err != nil {
			return fmt.Errorf("format jobs: %w", err)
		}
		if _, err := fmt.Fprintf(w, "\n== Job Details ==\n%s\n", pretty); err != nil {
			return err
		}
	}
	if r.Email != "" {
		if _, err := fmt.Fprintf(w, "\n== Generated Cold Email ==\n%s\n", r.Email); err != nil {
			return err
		}
	}
	return nil
}
