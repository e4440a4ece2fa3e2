package processpdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notification is the payload handed to the downstream API once text
// extraction completes.
type Notification struct {
	AnalysisID        string `json:"analysisId"`
	S3Bucket          string `json:"s3Bucket"`
	S3Key             string `json:"s3Key"`
	ExtractedText     string `json:"extractedText"`
	UserSelectedState string `json:"userSelectedState"`
}

// Notifier delivers extraction results downstream. A returned error is a
// hard failure of the whole operation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// HTTPNotifierOptions configure an HTTPNotifier.
type HTTPNotifierOptions struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// HTTPNotifier POSTs notifications as JSON to a fixed endpoint. Any non-2xx
// response is an error.
type HTTPNotifier struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPNotifier constructs a notifier for the given endpoint.
func NewHTTPNotifier(endpoint string, optFns ...func(o *HTTPNotifierOptions)) *HTTPNotifier {
	opts := HTTPNotifierOptions{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &HTTPNotifier{
		endpoint:   endpoint,
		httpClient: opts.HTTPClient,
	}
}

// Notify implements Notifier.
func (n *HTTPNotifier) Notify(ctx context.Context, payload Notification) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
