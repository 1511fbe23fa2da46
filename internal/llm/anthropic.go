package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient summarizes through the Anthropic messages API.
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates an Anthropic client. httpClient may be nil.
func NewAnthropicClient(config *Config, httpClient *http.Client) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %s", config.Provider)
	}

	opts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(config.APIKey),
		anthropicopt.WithMaxRetries(0),
		anthropicopt.WithRequestTimeout(config.Timeout),
	}
	if config.BaseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(config.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, anthropicopt.WithHTTPClient(httpClient))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), config: config}, nil
}

// Summarize implements Summarizer.
func (c *AnthropicClient) Summarize(ctx context.Context, in SectionInput) (*Summary, error) {
	prompt, err := BuildSummaryPrompt(in)
	if err != nil {
		return nil, err
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(DefaultTemperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt(ProviderAnthropic)}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return nil, apiError(ProviderAnthropic, err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return nil, &ResponseError{Provider: ProviderAnthropic, Cause: fmt.Errorf("no text content in response")}
	}
	return ParseSummary(ProviderAnthropic, strings.Join(parts, ""))
}

// Close implements Summarizer.
func (c *AnthropicClient) Close() error {
	return nil
}
