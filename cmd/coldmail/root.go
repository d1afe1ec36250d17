package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/coldmail/internal/ai"
	"github.com/amishk599/coldmail/internal/config"
	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/notifier"
	"github.com/amishk599/coldmail/internal/pipeline"
	"github.com/amishk599/coldmail/internal/ratelimit"
	"github.com/amishk599/coldmail/internal/retry"
	"github.com/amishk599/coldmail/internal/scrape"
	"github.com/amishk599/coldmail/internal/store"
)

const defaultConfigPath = "config.yaml"

var (
	cfgPath string
	debug   bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "coldmail",
	Short: "Cold email generator for job postings",
	Long:  "coldmail scrapes a job posting, extracts the role with an LLM, and drafts a cold outreach email citing your portfolio.",
	// Default to `app` so that `coldmail` with no args opens the interactive form.
	RunE:          runApp,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: COLDMAIL_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file (the interactive UI logs nowhere otherwise)")
}

// loadConfig loads .env and then resolves the config path and parses it.
// Priority: explicit path arg > COLDMAIL_CONFIG env var > "./config.yaml" if present > defaults.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	if path == "" {
		if env := os.Getenv("COLDMAIL_CONFIG"); env != "" {
			path = env
		} else if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", defaultConfigPath, err)
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// setupQuietLogger returns a logger for full-screen UIs: it writes to --log-file
// when given and discards everything otherwise. The returned func closes the file.
func setupQuietLogger(dbg bool) (*slog.Logger, func(), error) {
	if logFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return setupLogger(dbg, f), func() { f.Close() }, nil
}

func setupProvider(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) ai.LLMProvider {
	if cfg.AI.APIKey == "" {
		logger.Warn("no API key configured, model calls will fail",
			"provider", cfg.AI.Provider,
			"env", config.APIKeyEnv(cfg.AI.Provider),
		)
	}

	var (
		provider ai.LLMProvider
		err      error
	)
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		provider, err = ai.NewGeminiProvider(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, httpClient)
	case config.ProviderLangChain:
		provider, err = ai.NewLangChainProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	default:
		provider = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	}
	if err != nil {
		logger.Error("model client unavailable", "provider", cfg.AI.Provider, "error", err)
		provider = ai.Unavailable(err)
	}

	logger.Info("using model", "provider", cfg.AI.Provider, "model", cfg.AI.Model, "timeout", cfg.AI.Timeout.String())
	return ai.WithTimeout(provider, cfg.AI.Timeout)
}

func setupFetcher(cfg *config.Config, logger *slog.Logger) model.PageFetcher {
	var fetcher model.PageFetcher = scrape.NewFetcher(scrape.NewHTTPClient(cfg.Fetch.Timeout), logger)
	if cfg.Fetch.MinDelay > 0 {
		logger.Info("rate limiter configured", "min_delay", cfg.Fetch.MinDelay.String())
		fetcher = ratelimit.NewRateLimitedFetcher(fetcher, ratelimit.NewHostRateLimiter(cfg.Fetch.MinDelay))
	}
	if cfg.Fetch.MaxRetries > 0 {
		fetcher = retry.NewRetryFetcher(fetcher, cfg.Fetch.MaxRetries, cfg.Fetch.RetryBaseDelay, logger)
	}
	return fetcher
}

// setupStore opens the history database when enabled. The returned func closes it.
func setupStore(cfg *config.Config, logger *slog.Logger) (model.HistoryStore, func(), error) {
	if !cfg.History.Enabled {
		return store.NewNopStore(), func() {}, nil
	}

	sqlStore, err := store.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.History.Retention > 0 {
		if err := sqlStore.Cleanup(cfg.History.Retention); err != nil {
			logger.Warn("pruning history failed", "error", err)
		}
	}
	logger.Info("history enabled", "path", cfg.History.Path)
	return sqlStore, func() { sqlStore.Close() }, nil
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// senderFromConfig overlays the configured persona on the default one.
func senderFromConfig(sc config.SenderConfig) ai.Sender {
	s := ai.DefaultSender()
	if sc.Name != "" {
		s.Name = sc.Name
	}
	if sc.Title != "" {
		s.Title = sc.Title
	}
	if sc.Company != "" {
		s.Company = sc.Company
	}
	if sc.Pitch != "" {
		s.Pitch = sc.Pitch
	}
	return s
}

// buildPipeline wires fetcher, model, history and delivery. The returned func releases resources.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	historyStore, closeStore, err := setupStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	provider := setupProvider(ctx, cfg, &http.Client{}, logger)
	p := pipeline.New(
		setupFetcher(cfg, logger),
		ai.NewExtractor(provider, ai.ExtractJobsTemplate, logger),
		ai.NewDrafter(provider, ai.ColdEmailTemplate, senderFromConfig(cfg.Sender), logger),
		cfg.Portfolio.Links,
		historyStore,
		setupNotifier(cfg, httpClient, logger),
		logger,
	)
	return p, closeStore, nil
}
