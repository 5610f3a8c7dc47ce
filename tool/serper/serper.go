// Package serper provides a web search tool backed by the Serper.dev
// Google Search API. It is the primary retrieval capability of the
// archivist agent.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hupe1980/archivist/tool"
)

// DefaultBaseURL is the Serper.dev API endpoint.
const DefaultBaseURL = "https://google.serper.dev"

// Options configures the search tool.
type Options struct {
	// APIKey authenticates against Serper.dev. Falls back to the
	// SERPER_API_KEY environment variable.
	APIKey string
	// BaseURL overrides the API endpoint (tests).
	BaseURL string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// MaxResults bounds the number of organic results returned. Default 5.
	MaxResults int
}

// Result is one normalized organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Tool implements tool.Tool for Serper.dev web search. Safe for
// concurrent use; the underlying http.Client pools connections.
type Tool struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	maxResults int
}

// New constructs the search tool. It fails when no API key is available,
// mirroring the provider's hard requirement.
func New(optFns ...func(o *Options)) (*Tool, error) {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxResults: 5,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("SERPER_API_KEY")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("serper: missing API key (set SERPER_API_KEY or Options.APIKey)")
	}

	return &Tool{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		client:     opts.HTTPClient,
		maxResults: opts.MaxResults,
	}, nil
}

// Name returns the unique tool name.
func (t *Tool) Name() string { return "web_search" }

// Description returns the description shown to the model.
func (t *Tool) Description() string {
	return "A search engine. Useful for answering questions about current events " +
		"or retrieving information from the web. Input should be a concise search query."
}

// Parameters returns the argument schema.
func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

// serperResponse mirrors the subset of the provider payload we consume.
type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Invoke executes the search. Network failures, rate limits and provider
// 5xx responses are marked transient so the invoker retries them; other
// HTTP errors fail fast.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	body, err := json.Marshal(map[string]any{"q": query, "num": t.maxResults})
	if err != nil {
		return nil, fmt.Errorf("serper: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("serper: failed to build request: %w", err)
	}
	req.Header.Set("X-API-KEY", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, tool.Transient(fmt.Errorf("serper: request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, tool.Transient(fmt.Errorf("serper: status %d", resp.StatusCode))
		}
		return nil, fmt.Errorf("serper: status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, tool.Transient(fmt.Errorf("serper: failed to read response: %w", err))
	}

	var decoded serperResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("serper: failed to decode response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Organic))
	for _, item := range decoded.Organic {
		results = append(results, Result{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
		if len(results) >= t.maxResults {
			break
		}
	}

	return map[string]any{"query": query, "results": results}, nil
}
