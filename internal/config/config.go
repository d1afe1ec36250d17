package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for coldmail.
type Config struct {
	AI           AIConfig
	Fetch        FetchConfig
	Portfolio    PortfolioConfig
	Sender       SenderConfig
	Notification NotificationConfig
	History      HistoryConfig
	Server       ServerConfig
}

// AIConfig selects the hosted model used for extraction and drafting.
type AIConfig struct {
	Provider string        // "groq", "openai", "gemini" or "langchain"
	BaseURL  string        // provider default when empty
	Model    string        // provider default when empty
	APIKey   string        // falls back to the provider's env var
	Timeout  time.Duration // per-call timeout
}

// FetchConfig controls how job pages are downloaded.
type FetchConfig struct {
	Timeout        time.Duration
	MaxRetries     int           // 0 disables retries
	RetryBaseDelay time.Duration // first backoff step when MaxRetries > 0
	MinDelay       time.Duration // minimum gap between requests to the same host, 0 disables
}

// PortfolioConfig lists the links the drafter may cite.
type PortfolioConfig struct {
	Links []string `yaml:"links"`
}

// SenderConfig overrides the persona the email is written as. Empty fields keep the default persona.
type SenderConfig struct {
	Name    string `yaml:"name"`
	Title   string `yaml:"title"`
	Company string `yaml:"company"`
	Pitch   string `yaml:"pitch"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// HistoryConfig controls the optional run history database.
type HistoryConfig struct {
	Enabled   bool
	Path      string
	Retention time.Duration // entries older than this are pruned at startup, 0 keeps everything
}

// ServerConfig holds the web UI listen address.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Provider names.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderLangChain = "langchain"
)

// DefaultPortfolioLink is cited when no portfolio links are configured.
const DefaultPortfolioLink = "https://yourportfolio.com"

const (
	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultHistoryPath   = "coldmail.db"
	defaultServerAddr    = ":8080"
)

type providerDefaults struct {
	baseURL string
	model   string
	keyEnv  string
}

var providers = map[string]providerDefaults{
	ProviderGroq:      {baseURL: defaultGroqBaseURL, model: "llama-3.3-70b-versatile", keyEnv: "GROQ_API_KEY"},
	ProviderOpenAI:    {baseURL: defaultOpenAIBaseURL, model: "gpt-4o-mini", keyEnv: "OPENAI_API_KEY"},
	ProviderGemini:    {model: "gemini-2.5-flash", keyEnv: "GEMINI_API_KEY"},
	ProviderLangChain: {baseURL: defaultGroqBaseURL, model: "llama-3.3-70b-versatile", keyEnv: "GROQ_API_KEY"},
}

// APIKeyEnv returns the environment variable holding the API key for provider.
func APIKeyEnv(provider string) string {
	return providers[provider].keyEnv
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	AI           rawAIConfig        `yaml:"ai"`
	Fetch        rawFetchConfig     `yaml:"fetch"`
	Portfolio    PortfolioConfig    `yaml:"portfolio"`
	Sender       SenderConfig       `yaml:"sender"`
	Notification NotificationConfig `yaml:"notification"`
	History      rawHistoryConfig   `yaml:"history"`
	Server       ServerConfig       `yaml:"server"`
}

type rawAIConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawFetchConfig struct {
	Timeout        string `yaml:"timeout"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
	MinDelay       string `yaml:"min_delay"`
}

type rawHistoryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	aiTimeout, err := parseDuration("ai.timeout", raw.AI.Timeout, 60*time.Second)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("fetch.timeout", raw.Fetch.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	retryBaseDelay, err := parseDuration("fetch.retry_base_delay", raw.Fetch.RetryBaseDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("fetch.min_delay", raw.Fetch.MinDelay, 0)
	if err != nil {
		return nil, err
	}
	retention, err := parseDuration("history.retention", raw.History.Retention, 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	provider := strings.ToLower(strings.TrimSpace(raw.AI.Provider))
	if provider == "" {
		provider = ProviderGroq
	}
	defaults := providers[provider]

	baseURL := raw.AI.BaseURL
	if baseURL == "" {
		baseURL = defaults.baseURL
	}
	aiModel := raw.AI.Model
	if aiModel == "" {
		aiModel = defaults.model
	}
	apiKey := raw.AI.APIKey
	if apiKey == "" && defaults.keyEnv != "" {
		apiKey = os.Getenv(defaults.keyEnv)
	}

	links := raw.Portfolio.Links
	if len(links) == 0 {
		links = []string{DefaultPortfolioLink}
	}

	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}

	historyPath := raw.History.Path
	if historyPath == "" {
		historyPath = defaultHistoryPath
	}

	server := raw.Server
	if server.Addr == "" {
		server.Addr = defaultServerAddr
	}

	cfg := &Config{
		AI: AIConfig{
			Provider: provider,
			BaseURL:  baseURL,
			Model:    aiModel,
			APIKey:   apiKey,
			Timeout:  aiTimeout,
		},
		Fetch: FetchConfig{
			Timeout:        fetchTimeout,
			MaxRetries:     raw.Fetch.MaxRetries,
			RetryBaseDelay: retryBaseDelay,
			MinDelay:       minDelay,
		},
		Portfolio:    PortfolioConfig{Links: links},
		Sender:       raw.Sender,
		Notification: notification,
		History: HistoryConfig{
			Enabled:   raw.History.Enabled,
			Path:      historyPath,
			Retention: retention,
		},
		Server: server,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if _, ok := providers[cfg.AI.Provider]; !ok {
		return fmt.Errorf("ai.provider must be one of groq, openai, gemini, langchain, got %q", cfg.AI.Provider)
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive, got %v", cfg.AI.Timeout)
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.MaxRetries > 0 && cfg.Fetch.RetryBaseDelay <= 0 {
		return fmt.Errorf("fetch.retry_base_delay must be positive when retries are enabled, got %v", cfg.Fetch.RetryBaseDelay)
	}
	if cfg.Fetch.MinDelay < 0 {
		return fmt.Errorf("fetch.min_delay must not be negative, got %v", cfg.Fetch.MinDelay)
	}

	for i, link := range cfg.Portfolio.Links {
		if strings.TrimSpace(link) == "" {
			return fmt.Errorf("portfolio.links[%d] is empty", i)
		}
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.History.Retention < 0 {
		return fmt.Errorf("history.retention must not be negative, got %v", cfg.History.Retention)
	}

	return nil
}
