package llm

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// maxErrorBody bounds the response body kept on an APIError.
const maxErrorBody = 2048

// APIError is a non-2xx response from a provider API.
type APIError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// apiError converts an SDK error into an *APIError when the provider answered with an
// error status. Transport and context errors are wrapped unchanged.
func apiError(provider Provider, err error) error {
	var (
		status int
		resp   *http.Response
	)
	var openaiErr *openai.Error
	var anthropicErr *anthropic.Error
	switch {
	case errors.As(err, &openaiErr):
		status, resp = openaiErr.StatusCode, openaiErr.Response
	case errors.As(err, &anthropicErr):
		status, resp = anthropicErr.StatusCode, anthropicErr.Response
	default:
		return fmt.Errorf("%s request failed: %w", provider, err)
	}

	var body string
	if resp != nil && resp.Body != nil {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		body = string(data)
	}
	return &APIError{Provider: provider, StatusCode: status, Body: body}
}
