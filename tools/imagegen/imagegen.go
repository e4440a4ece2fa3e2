// Package imagegen generates marketing images for conversation workflows.
// Two backends are provided: a midjourney-proxy client (submit a task, wait
// a fixed delay, fetch the result by task id) and DALL-E 3 through the
// official OpenAI SDK. Both expose registry tools that log failures and
// return an empty URL instead of aborting the turn.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/tool"
)

// MidjourneyOptions configure a MidjourneyClient.
type MidjourneyOptions struct {
	// FetchDelay is how long to wait between submitting a task and fetching
	// its result. The proxy renders asynchronously; one fixed suspend point
	// keeps the client simple.
	FetchDelay time.Duration
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// MidjourneyClient talks to a midjourney-proxy deployment.
type MidjourneyClient struct {
	baseURL    string
	apiSecret  string
	fetchDelay time.Duration
	httpClient *http.Client
}

// NewMidjourneyClient constructs a client for the proxy at baseURL.
func NewMidjourneyClient(baseURL, apiSecret string, optFns ...func(o *MidjourneyOptions)) *MidjourneyClient {
	opts := MidjourneyOptions{
		FetchDelay: 30 * time.Second,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &MidjourneyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiSecret:  apiSecret,
		fetchDelay: opts.FetchDelay,
		httpClient: opts.HTTPClient,
	}
}

// Imagine submits a prompt, waits the configured delay and fetches the
// rendered image URL. The wait honors ctx cancellation.
func (c *MidjourneyClient) Imagine(ctx context.Context, prompt string) (string, error) {
	taskID, err := c.submit(ctx, prompt)
	if err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.fetchDelay):
	}

	return c.fetch(ctx, taskID)
}

func (c *MidjourneyClient) submit(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("encode submit payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mj/submit/imagine", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiSecret != "" {
		req.Header.Set("mj-api-secret", c.apiSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit imagine task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("submit returned status %d: %s", resp.StatusCode, string(body))
	}

	var submitResp struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
		Result      string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}

	if submitResp.Result == "" {
		return "", fmt.Errorf("submit rejected: %s", submitResp.Description)
	}

	return submitResp.Result, nil
}

func (c *MidjourneyClient) fetch(ctx context.Context, taskID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/mj/task/"+taskID+"/fetch", nil)
	if err != nil {
		return "", fmt.Errorf("build fetch request: %w", err)
	}
	if c.apiSecret != "" {
		req.Header.Set("mj-api-secret", c.apiSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch task %s: %w", taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch task %s: status %d", taskID, resp.StatusCode)
	}

	var task struct {
		Status     string `json:"status"`
		ImageURL   string `json:"imageUrl"`
		FailReason string `json:"failReason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return "", fmt.Errorf("decode task %s: %w", taskID, err)
	}

	if task.ImageURL == "" {
		return "", fmt.Errorf("task %s not ready (status %s): %s", taskID, task.Status, task.FailReason)
	}

	return task.ImageURL, nil
}

// Tool wraps Imagine as a registry tool. Failures are logged and reported as
// an empty URL.
func (c *MidjourneyClient) Tool() tool.Tool {
	return tool.NewFunctionTool(
		"generate_image",
		"Generate an image from a text prompt. Returns the image URL.",
		promptSchema(),
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			prompt, _ := args["prompt"].(string)

			url, err := c.Imagine(toolCtx.Context(), prompt)
			if err != nil {
				toolCtx.Logger().Warn("imagegen.midjourney.error", "error", err.Error())
				return "", nil
			}

			return url, nil
		},
	)
}

// DalleOptions configure a DalleGenerator.
type DalleOptions struct {
	Model openai.ImageModel
	Size  openai.ImageGenerateParamsSize
}

// DalleGenerator renders images with the OpenAI Images API.
type DalleGenerator struct {
	client *openai.Client
	opts   DalleOptions
}

// NewDalleGenerator constructs a generator using a fresh OpenAI client
// configured from the environment.
func NewDalleGenerator(optFns ...func(o *DalleOptions)) *DalleGenerator {
	client := openai.NewClient()
	return NewDalleGeneratorFromClient(&client, optFns...)
}

// NewDalleGeneratorFromClient constructs a generator from an existing client.
func NewDalleGeneratorFromClient(client *openai.Client, optFns ...func(o *DalleOptions)) *DalleGenerator {
	opts := DalleOptions{
		Model: openai.ImageModelDallE3,
		Size:  openai.ImageGenerateParamsSize1024x1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &DalleGenerator{client: client, opts: opts}
}

// Generate renders one image for the prompt and returns its URL.
func (g *DalleGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  g.opts.Model,
		Size:   g.opts.Size,
		N:      openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("dalle generate: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("dalle returned no image")
	}

	return resp.Data[0].URL, nil
}

// Tool wraps Generate as a registry tool with empty-on-failure semantics.
func (g *DalleGenerator) Tool() tool.Tool {
	return tool.NewFunctionTool(
		"generate_image",
		"Generate an image from a text prompt using DALL-E. Returns the image URL.",
		promptSchema(),
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			prompt, _ := args["prompt"].(string)

			url, err := g.Generate(toolCtx.Context(), prompt)
			if err != nil {
				toolCtx.Logger().Warn("imagegen.dalle.error", "error", err.Error())
				return "", nil
			}

			return url, nil
		},
	)
}

func promptSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{"type": "string", "description": "Text description of the image"},
		},
		"required": []string{"prompt"},
	}
}
