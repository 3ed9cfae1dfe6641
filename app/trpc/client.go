// Package trpc talks to the dashboard's raw refresh endpoint, the second
// front-end to the same capability the browser workflow drives. One call
// asks the backend to refresh every feed in a single batch.
package trpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const refreshPath = "/trpc/feed.refreshArticles?batch=1"

type Client struct {
	baseURL    string
	authCode   string
	userAgent  string
	httpClient *http.Client
}

// BaseURL derives the service root from a dashboard URL: trailing slashes
// and the /dash suffix of a UI URL are stripped.
func BaseURL(raw string) string {
	return strings.TrimSuffix(strings.TrimRight(raw, "/"), "/dash")
}

// NewClient builds a client for the dashboard at baseURL (a UI /dash URL is
// tolerated).
func NewClient(baseURL, authCode, userAgent string, timeout time.Duration) *Client {
	base := BaseURL(baseURL)

	return &Client{
		baseURL:    base,
		authCode:   authCode,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RefreshAll fires one whole-batch refresh request and decodes the tRPC
// response envelope. A backend refusal (an error element in the batch array)
// is reported inside the Result, not as an error; only transport problems
// return an error.
func (c *Client) RefreshAll(ctx context.Context) (*Result, error) {
	body, err := json.Marshal(map[string]any{"0": map[string]any{}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	url := c.baseURL + refreshPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authCode)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", c.baseURL+"/dash/feeds")
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Duration:   time.Since(started),
	}

	var batch []envelope
	if err := json.Unmarshal(data, &batch); err != nil {
		// The endpoint answers with a batch array; anything else is noted
		// verbatim for the operator.
		result.RawBody = string(data)
		slog.Warn("Refresh response is not a batch array", "status", resp.StatusCode, "body_length", len(data))
		return result, nil
	}

	if len(batch) > 0 && batch[0].Error != nil {
		result.Err = batch[0].Error
	}

	return result, nil
}
