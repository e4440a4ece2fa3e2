// Package bingsearch exposes the Bing Web and Image Search APIs as
// conversation tools. Remote failures are caught at the call site, logged
// and surfaced as empty result sets so a flaky search never aborts a turn.
package bingsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/tool"
)

const (
	defaultWebEndpoint   = "https://api.bing.microsoft.com/v7.0/search"
	defaultImageEndpoint = "https://api.bing.microsoft.com/v7.0/images/search"
)

// WebResult is one organic web search hit.
type WebResult struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Options configure a Client.
type Options struct {
	// WebEndpoint and ImageEndpoint override the Bing API URLs (tests,
	// proxies, sovereign clouds).
	WebEndpoint   string
	ImageEndpoint string
	// Count is the number of results requested per query.
	Count int
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client talks to the Bing Search APIs.
type Client struct {
	apiKey        string
	webEndpoint   string
	imageEndpoint string
	count         int
	httpClient    *http.Client
}

// New constructs a Client authenticated with the given subscription key.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{
		WebEndpoint:   defaultWebEndpoint,
		ImageEndpoint: defaultImageEndpoint,
		Count:         8,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		apiKey:        apiKey,
		webEndpoint:   opts.WebEndpoint,
		imageEndpoint: opts.ImageEndpoint,
		count:         opts.Count,
		httpClient:    opts.HTTPClient,
	}
}

// SearchWeb runs a web search query.
func (c *Client) SearchWeb(ctx context.Context, query string) ([]WebResult, error) {
	body, err := c.get(ctx, c.webEndpoint, query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		WebPages struct {
			Value []WebResult `json:"value"`
		} `json:"webPages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode web search response: %w", err)
	}

	return payload.WebPages.Value, nil
}

// SearchImages runs an image search query returning thumbnail URLs.
func (c *Client) SearchImages(ctx context.Context, query string) ([]string, error) {
	body, err := c.get(ctx, c.imageEndpoint, query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Value []struct {
			ThumbnailURL string `json:"thumbnailUrl"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode image search response: %w", err)
	}

	urls := make([]string, 0, len(payload.Value))
	for _, v := range payload.Value {
		if v.ThumbnailURL != "" {
			urls = append(urls, v.ThumbnailURL)
		}
	}

	return urls, nil
}

func (c *Client) get(ctx context.Context, endpoint, query string) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(c.count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bing response: %w", err)
	}

	return body, nil
}

// WebSearchTool wraps SearchWeb as a registry tool. Search failures are
// logged and reported as an empty result list.
func (c *Client) WebSearchTool() tool.Tool {
	return tool.NewFunctionTool(
		"bing_search",
		"Search the web for pages matching a query. Returns name, url and snippet per result.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "Search phrase"},
			},
			"required": []string{"query"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			results, err := c.SearchWeb(toolCtx.Context(), query)
			if err != nil {
				toolCtx.Logger().Warn("bingsearch.web.error", "query", query, "error", err.Error())
				return []WebResult{}, nil
			}

			return results, nil
		},
	)
}

// ImageSearchTool wraps SearchImages as a registry tool with the same
// empty-on-failure semantics.
func (c *Client) ImageSearchTool() tool.Tool {
	return tool.NewFunctionTool(
		"bing_image_search",
		"Search for images matching a query. Returns thumbnail URLs.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "Search phrase"},
			},
			"required": []string{"query"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			urls, err := c.SearchImages(toolCtx.Context(), query)
			if err != nil {
				toolCtx.Logger().Warn("bingsearch.image.error", "query", query, "error", err.Error())
				return []string{}, nil
			}

			return urls, nil
		},
	)
}
