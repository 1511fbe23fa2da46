package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ChatClient summarizes through an OpenAI-compatible chat completions API.
// It serves the openai, groq and local providers.
type ChatClient struct {
	client openai.Client
	config *Config
}

// NewChatClient creates a client for an OpenAI-compatible provider. httpClient may be nil.
func NewChatClient(config *Config, httpClient *http.Client) (*ChatClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for provider %s", config.Provider)
	}
	if config.Provider != ProviderLocal && config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %s", config.Provider)
	}

	// Retries belong to the summarize worker.
	opts := []openaiopt.RequestOption{
		openaiopt.WithBaseURL(config.BaseURL),
		openaiopt.WithMaxRetries(0),
		openaiopt.WithRequestTimeout(config.Timeout),
	}
	if config.APIKey != "" {
		opts = append(opts, openaiopt.WithAPIKey(config.APIKey))
	} else {
		opts = append(opts, openaiopt.WithHeaderDel("Authorization"))
	}
	if httpClient != nil {
		opts = append(opts, openaiopt.WithHTTPClient(httpClient))
	}
	return &ChatClient{client: openai.NewClient(opts...), config: config}, nil
}

// Summarize implements Summarizer.
func (c *ChatClient) Summarize(ctx context.Context, in SectionInput) (*Summary, error) {
	prompt, err := BuildSummaryPrompt(in)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(c.config.Provider)),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(DefaultTemperature),
	}
	switch c.config.Provider {
	case ProviderOpenAI:
		if supportsJSONMode(c.config.Model) {
			jsonObject := shared.NewResponseFormatJSONObjectParam()
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &jsonObject}
		}
	case ProviderGroq:
		params.MaxTokens = openai.Int(int64(c.config.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, apiError(c.config.Provider, err)
	}
	if len(completion.Choices) == 0 {
		return nil, &ResponseError{Provider: c.config.Provider, Cause: fmt.Errorf("no choices in response")}
	}
	return ParseSummary(c.config.Provider, completion.Choices[0].Message.Content)
}

// Close implements Summarizer.
func (c *ChatClient) Close() error {
	return nil
}

// supportsJSONMode reports whether an OpenAI model accepts response_format json_object.
func supportsJSONMode(model string) bool {
	return strings.Contains(model, "gpt-4") || strings.Contains(model, "gpt-3.5")
}
