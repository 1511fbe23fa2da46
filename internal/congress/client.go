// Package congress is a client for the congress.gov v3 API: bill metadata, text versions,
// action history and the recently-updated bill listing.
package congress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/justabill/internal/config"
	"github.com/jonathan/justabill/internal/fetch"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/types"
)

const (
	// actionsPageSize is the page size requested from the actions endpoint (API maximum).
	actionsPageSize = 250
	// maxActionPages bounds pagination in case the API keeps returning a next link.
	maxActionPages = 100
)

// Client talks to the congress.gov API. Each call is one network operation with its own timeout;
// results are never cached.
type Client struct {
	baseURL     string
	apiKey      string
	timeout     time.Duration
	textTimeout time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a client from the congress section of the config.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.Congress.BaseURL, "/"),
		apiKey:      cfg.Congress.APIKey,
		timeout:     cfg.Congress.FetchTimeout,
		textTimeout: cfg.Congress.TextFetchTimeout,
		httpClient:  &http.Client{},
		logger:      observability.OrDefault(logger),
	}
}

func (c *Client) billPath(id types.BillIdentity) string {
	return fmt.Sprintf("%s/bill/%d/%s/%d", c.baseURL, id.Congress, strings.ToLower(id.BillType), id.BillNumber)
}

// getJSON fetches urlStr with the API key and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, urlStr string, extra url.Values, out any) error {
	query := url.Values{"format": {"json"}}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	for key, values := range extra {
		query[key] = values
	}

	result, err := fetch.URL(ctx, urlStr, &fetch.Options{
		Timeout:   c.timeout,
		UserAgent: fetch.DefaultUserAgent,
		Headers:   map[string]string{"Accept": "application/json"},
		Query:     query,
		Client:    c.httpClient,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(result.Body, out); err != nil {
		return &DecodeError{URL: urlStr, Cause: err}
	}
	return nil
}

// GetBill fetches bill metadata. A 404 or an empty bill object yields a *NotFoundError.
func (c *Client) GetBill(ctx context.Context, id types.BillIdentity) (*BillMetadata, error) {
	urlStr := c.billPath(id)
	c.logger.Debug("fetching bill metadata", "bill", id.String())

	var resp billResponse
	if err := c.getJSON(ctx, urlStr, nil, &resp); err != nil {
		if fetch.IsNotFound(err) {
			return nil, &NotFoundError{Bill: id, Cause: err}
		}
		return nil, err
	}

	raw := strings.TrimSpace(string(resp.Bill))
	if raw == "" || raw == "null" || raw == "{}" {
		return nil, &NotFoundError{Bill: id}
	}

	var meta BillMetadata
	if err := json.Unmarshal(resp.Bill, &meta); err != nil {
		return nil, &DecodeError{URL: urlStr, Cause: err}
	}
	meta.Raw = resp.Bill
	return &meta, nil
}

// GetTextVersions fetches the list of published text versions. An empty list is not an error.
func (c *Client) GetTextVersions(ctx context.Context, id types.BillIdentity) ([]TextVersion, error) {
	var resp textResponse
	if err := c.getJSON(ctx, c.billPath(id)+"/text", nil, &resp); err != nil {
		return nil, err
	}
	return resp.TextVersions, nil
}

// GetActions fetches the full action history, following pagination until exhausted.
func (c *Client) GetActions(ctx context.Context, id types.BillIdentity) ([]Action, error) {
	next := c.billPath(id) + "/actions"
	extra := url.Values{"limit": {strconv.Itoa(actionsPageSize)}}

	var actions []Action
	seen := make(map[string]bool)
	for page := 0; next != "" && page < maxActionPages; page++ {
		if seen[next] {
			break
		}
		seen[next] = true

		var resp actionsResponse
		if err := c.getJSON(ctx, next, extra, &resp); err != nil {
			return nil, err
		}
		actions = append(actions, resp.Actions...)
		next = resp.Pagination.Next
		// Next links carry their own offset and limit.
		extra = nil
	}

	c.logger.Debug("fetched bill actions", "bill", id.String(), "count", len(actions))
	return actions, nil
}

// GetRecentBills lists bills ordered by most recent update.
func (c *Client) GetRecentBills(ctx context.Context, limit, offset int) ([]BillRef, error) {
	extra := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
		"sort":   {"updateDate+desc"},
	}

	var resp billListResponse
	if err := c.getJSON(ctx, c.baseURL+"/bill", extra, &resp); err != nil {
		return nil, err
	}
	return resp.Bills, nil
}

// FetchRendition downloads a rendition body using the longer text timeout.
// When the server omits a Content-Type the rendition's declared type is used.
func (c *Client) FetchRendition(ctx context.Context, r types.Rendition) (*fetch.Result, error) {
	c.logger.Debug("fetching bill text", "url", r.SourceURL, "label", r.Label)

	result, err := fetch.URL(ctx, r.SourceURL, &fetch.Options{
		Timeout:   c.textTimeout,
		UserAgent: fetch.DefaultUserAgent,
		Client:    c.httpClient,
	})
	if err != nil {
		return nil, err
	}
	if result.ContentType == "" {
		result.ContentType = r.ContentType
	}
	return result, nil
}

// FetchText downloads a rendition and extracts its normalized plain text.
func (c *Client) FetchText(ctx context.Context, r types.Rendition) (string, error) {
	result, err := c.FetchRendition(ctx, r)
	if err != nil {
		return "", err
	}
	text, err := fetch.ExtractText(result.Body, result.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", r.SourceURL, err)
	}
	return text, nil
}
