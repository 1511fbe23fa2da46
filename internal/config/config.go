// Package config provides configuration loading and validation for the ingestion CLI and workers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultCongressBaseURL  = "https://api.congress.gov/v3"
	DefaultFetchTimeout     = 30 * time.Second
	DefaultTextFetchTimeout = 60 * time.Second
	DefaultLLMProvider      = "openai"
	DefaultSummaryMaxTokens = 4000
	DefaultSummaryStream    = "sections.summarize"
	DefaultSummaryGroup     = "summarizers"
	DefaultMaxAttempts      = 3
	DefaultRetryBackoff     = 60 * time.Second
)

// Config is constructed once at startup and passed by pointer into each component.
// Command-specific requirements (database, redis, API keys) are checked by the Require* methods.
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// PushgatewayURL receives the counters of one-shot commands when set.
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`

	Congress CongressConfig `mapstructure:"congress"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Summary  SummaryConfig  `mapstructure:"summary"`
}

// CongressConfig configures the legislative-data source client.
type CongressConfig struct {
	BaseURL          string        `mapstructure:"base_url" validate:"required,url"`
	APIKey           string        `mapstructure:"api_key"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
	TextFetchTimeout time.Duration `mapstructure:"text_fetch_timeout" validate:"gt=0"`
}

// LLMConfig selects and configures the summarization provider.
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=gemini openai anthropic groq local"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
}

// SummaryConfig configures the summarization queue and worker.
type SummaryConfig struct {
	MaxTokens   int    `mapstructure:"max_tokens" validate:"gt=0"`
	Stream      string `mapstructure:"stream" validate:"required"`
	Group       string `mapstructure:"group" validate:"required"`
	MaxAttempts int    `mapstructure:"max_attempts" validate:"gt=0"`

	// RetryBackoff is the delay before the first retry; it doubles on every attempt.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" validate:"gte=0"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"database_url":                "DATABASE_URL",
	"redis_url":                   "REDIS_URL",
	"log_level":                   "LOG_LEVEL",
	"pushgateway_url":             "PUSHGATEWAY_URL",
	"congress.base_url":           "CONGRESS_BASE_URL",
	"congress.api_key":            "CONGRESS_API_KEY",
	"congress.fetch_timeout":      "FETCH_TIMEOUT",
	"congress.text_fetch_timeout": "TEXT_FETCH_TIMEOUT",
	"llm.provider":                "LLM_PROVIDER",
	"llm.model":                   "LLM_MODEL",
	"llm.api_key":                 "LLM_API_KEY",
	"llm.base_url":                "LLM_BASE_URL",
	"summary.max_tokens":          "SUMMARY_MAX_TOKENS",
	"summary.stream":              "SUMMARY_STREAM",
	"summary.group":               "SUMMARY_GROUP",
	"summary.max_attempts":        "SUMMARY_MAX_ATTEMPTS",
	"summary.retry_backoff":       "SUMMARY_RETRY_BACKOFF",
}

// Load reads configuration from an optional file (yaml, json or toml) and the environment.
// Environment variables win over file values; defaults fill everything else.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration holding only default values.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Congress: CongressConfig{
			BaseURL:          DefaultCongressBaseURL,
			FetchTimeout:     DefaultFetchTimeout,
			TextFetchTimeout: DefaultTextFetchTimeout,
		},
		LLM: LLMConfig{
			Provider: DefaultLLMProvider,
		},
		Summary: SummaryConfig{
			MaxTokens:    DefaultSummaryMaxTokens,
			Stream:       DefaultSummaryStream,
			Group:        DefaultSummaryGroup,
			MaxAttempts:  DefaultMaxAttempts,
			RetryBackoff: DefaultRetryBackoff,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("congress.base_url", d.Congress.BaseURL)
	v.SetDefault("congress.fetch_timeout", d.Congress.FetchTimeout)
	v.SetDefault("congress.text_fetch_timeout", d.Congress.TextFetchTimeout)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("summary.max_tokens", d.Summary.MaxTokens)
	v.SetDefault("summary.stream", d.Summary.Stream)
	v.SetDefault("summary.group", d.Summary.Group)
	v.SetDefault("summary.max_attempts", d.Summary.MaxAttempts)
	v.SetDefault("summary.retry_backoff", d.Summary.RetryBackoff)
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for connection strings or API keys since only
// some commands need them.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.LLM.Provider == "local" && c.LLM.BaseURL == "" {
		return fmt.Errorf("config error: 'llm.base_url' is required for the local provider")
	}
	return nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// RequireRedis returns an error when no Redis URL is configured.
func (c *Config) RequireRedis() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

// RequireLLM returns an error when the selected provider needs an API key and none is set.
func (c *Config) RequireLLM() error {
	if c.LLM.Provider != "local" && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for provider %s", c.LLM.Provider)
	}
	return nil
}
