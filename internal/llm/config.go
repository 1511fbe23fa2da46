// Package llm provides grounded section summarization over several model providers.
// Each provider shapes its own request; prompts, response cleanup and validation are shared.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/justabill/internal/config"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	// ProviderGroq serves open models behind an OpenAI-compatible API
	ProviderGroq Provider = "groq"
	// ProviderLocal is any OpenAI-compatible server such as LM Studio or Ollama
	ProviderLocal Provider = "local"
)

// defaultModels is used when no model is configured.
var defaultModels = map[Provider]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4",
	ProviderAnthropic: "claude-3-5-sonnet-20241022",
	ProviderGroq:      "llama-3.3-70b-versatile",
	ProviderLocal:     "local-model",
}

// defaultBaseURLs is used when no base URL is configured.
var defaultBaseURLs = map[Provider]string{
	ProviderOpenAI:    "https://api.openai.com/v1",
	ProviderAnthropic: "https://api.anthropic.com",
	ProviderGroq:      "https://api.groq.com/openai/v1",
}

const (
	// DefaultTemperature keeps summaries close to the source text
	DefaultTemperature = 0.3
	// DefaultResponseTokens caps the length of one summary response
	DefaultResponseTokens = 2000
	// DefaultTimeout bounds one hosted summarization request
	DefaultTimeout = 60 * time.Second
	// LocalTimeout bounds one request to a local model server
	LocalTimeout = 120 * time.Second
)

// Config holds the resolved settings for one provider.
type Config struct {
	Provider  Provider
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// ConfigFrom resolves provider defaults on top of the application configuration.
func ConfigFrom(cfg *config.Config) (*Config, error) {
	provider := Provider(strings.ToLower(cfg.LLM.Provider))
	if _, ok := defaultModels[provider]; !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}

	c := &Config{
		Provider:  provider,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   strings.TrimSuffix(cfg.LLM.BaseURL, "/"),
		Timeout:   DefaultTimeout,
		MaxTokens: DefaultResponseTokens,
	}
	if c.Model == "" {
		c.Model = defaultModels[provider]
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURLs[provider]
	}
	if provider == ProviderLocal {
		c.Timeout = LocalTimeout
	}
	return c, nil
}
