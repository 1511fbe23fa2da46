package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/justabill/internal/config"
	"google.golang.org/api/option"
)

// Summarizer produces a grounded summary of one bill section
type Summarizer interface {
	// Summarize generates a summary of the section
	Summarize(ctx context.Context, in SectionInput) (*Summary, error)
	// Close releases any resources held by the client
	Close() error
}

// NewSummarizer creates the summarizer configured by cfg. Sections longer than
// cfg.Summary.MaxTokens are summarized in chunks and merged.
func NewSummarizer(ctx context.Context, cfg *config.Config, httpClient *http.Client) (Summarizer, error) {
	llmConfig, err := ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	var inner Summarizer
	switch llmConfig.Provider {
	case ProviderGemini:
		inner, err = NewGeminiClient(ctx, llmConfig)
	case ProviderAnthropic:
		inner, err = NewAnthropicClient(llmConfig, httpClient)
	default:
		inner, err = NewChatClient(llmConfig, httpClient)
	}
	if err != nil {
		return nil, err
	}
	return NewChunkedSummarizer(inner, cfg.Summary.MaxTokens), nil
}

// GeminiClient implements Summarizer for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %s", config.Provider)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Summarize implements Summarizer.
func (c *GeminiClient) Summarize(ctx context.Context, in SectionInput) (*Summary, error) {
	prompt, err := BuildSummaryPrompt(in)
	if err != nil {
		return nil, err
	}

	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(DefaultTemperature)
	model.SetMaxOutputTokens(int32(c.config.MaxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt(ProviderGemini)))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, &ResponseError{Provider: ProviderGemini, Cause: err}
	}
	return ParseSummary(ProviderGemini, text)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
