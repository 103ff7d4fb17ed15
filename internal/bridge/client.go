package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const secretHeader = "X-Bridge-Secret"

// Client forwards work to the external worker over HTTP. The call returns as
// soon as the worker acknowledges receipt; the real result arrives later via
// the callback endpoint.
type Client struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewClient constructs a bridge client for the configured endpoint.
func NewClient(url, secret string) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("BRIDGE_URL is required")
	}
	return &Client{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Forward posts the payload to the external worker.
func (c *Client) Forward(ctx context.Context, payload ForwardPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode bridge payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(secretHeader, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
