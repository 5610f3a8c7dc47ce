// Package webfetch provides a page fetch tool so the agent can read the
// contents behind a search result link.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/archivist/tool"
)

// Options configures the fetch tool.
type Options struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// MaxBodyBytes truncates fetched pages. Default 16 KiB.
	MaxBodyBytes int64
	// UserAgent sent with every request.
	UserAgent string
}

// Tool implements tool.Tool for fetching web pages. Safe for concurrent
// use.
type Tool struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

// New constructs the fetch tool.
func New(optFns ...func(o *Options)) *Tool {
	opts := Options{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		MaxBodyBytes: 16 << 10,
		UserAgent:    "archivist/1.0",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Tool{
		client:       opts.HTTPClient,
		maxBodyBytes: opts.MaxBodyBytes,
		userAgent:    opts.UserAgent,
	}
}

// Name returns the unique tool name.
func (t *Tool) Name() string { return "fetch_page" }

// Description returns the description shown to the model.
func (t *Tool) Description() string {
	return "Fetch the text content of a web page by URL, typically a link returned by web_search. " +
		"The content is truncated; fetch only pages that look relevant."
}

// Parameters returns the argument schema.
func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Absolute http(s) URL of the page to fetch",
			},
		},
		"required": []string{"url"},
	}
}

// Invoke fetches the page. Network failures, rate limits and 5xx
// responses are marked transient; invalid URLs and other HTTP errors fail
// fast.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	rawURL, _ := args["url"].(string)

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid url %q: expected absolute http(s) URL", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, tool.Transient(fmt.Errorf("fetch failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, tool.Transient(fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode))
		}
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	// Read one byte past the limit so a body of exactly MaxBodyBytes is
	// not misreported as truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes+1))
	if err != nil {
		return nil, tool.Transient(fmt.Errorf("failed to read body: %w", err))
	}

	truncated := int64(len(body)) > t.maxBodyBytes
	if truncated {
		body = body[:t.maxBodyBytes]
	}

	return map[string]any{
		"url":          rawURL,
		"content_type": resp.Header.Get("Content-Type"),
		"content":      strings.ToValidUTF8(string(body), ""),
		"truncated":    truncated,
	}, nil
}
