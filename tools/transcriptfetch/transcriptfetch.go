// Package transcriptfetch retrieves video transcripts from a captions API
// and joins the segment text into one block for downstream summarization.
// Fetch failures are logged and surfaced as empty text so a missing
// transcript never aborts a conversation turn.
package transcriptfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/tool"
)

// Segment is one timed caption chunk.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Options configure a Client.
type Options struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Language requests captions in a specific language code.
	Language string
}

// Client fetches transcripts from a captions endpoint.
type Client struct {
	endpoint   string
	language   string
	httpClient *http.Client
}

// New constructs a Client for the given captions API endpoint.
func New(endpoint string, optFns ...func(o *Options)) *Client {
	opts := Options{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Language:   "en",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		endpoint:   endpoint,
		language:   opts.Language,
		httpClient: opts.HTTPClient,
	}
}

// Segments fetches the raw caption segments for a video.
func (c *Client) Segments(ctx context.Context, videoID string) ([]Segment, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	q := u.Query()
	q.Set("video_id", videoID)
	q.Set("lang", c.language)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch transcript %s: status %d", videoID, resp.StatusCode)
	}

	var segments []Segment
	if err := json.NewDecoder(resp.Body).Decode(&segments); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", videoID, err)
	}

	return segments, nil
}

// Transcript fetches the segments and joins their text with spaces.
func (c *Client) Transcript(ctx context.Context, videoID string) (string, error) {
	segments, err := c.Segments(ctx, videoID)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			texts = append(texts, t)
		}
	}

	return strings.Join(texts, " "), nil
}

// Tool wraps Transcript as a registry tool. Failures are logged and
// reported as empty text.
func (c *Client) Tool() tool.Tool {
	return tool.NewFunctionTool(
		"fetch_transcript",
		"Fetch the transcript of a video by id. Returns the full caption text.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"video_id": map[string]any{"type": "string", "description": "Video identifier"},
			},
			"required": []string{"video_id"},
		},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			videoID, _ := args["video_id"].(string)

			text, err := c.Transcript(toolCtx.Context(), videoID)
			if err != nil {
				toolCtx.Logger().Warn("transcriptfetch.error", "video_id", videoID, "error", err.Error())
				return "", nil
			}

			return text, nil
		},
	)
}
