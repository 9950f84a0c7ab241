// Package httppost is the request plumbing shared by the HTTP based sinks.
package httppost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout applies when a sink sets no timeout.
	DefaultTimeout = 5 * time.Second
	// RunHeader carries the run id so collaborators can dedupe retries.
	RunHeader = "X-Mulegraph-Run"
)

// Options configures a Client.
type Options struct {
	// Name prefixes errors, e.g. "clickhouse".
	Name    string
	Timeout time.Duration
	Headers map[string]string
}

// Client posts payloads with fixed headers.
type Client struct {
	name    string
	headers map[string]string
	http    *http.Client
}

// New copies the headers so later edits to opts have no effect.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	name := opts.Name
	if name == "" {
		name = "http"
	}
	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}
	return &Client{name: name, headers: headers, http: &http.Client{Timeout: timeout}}
}

// Post sends body to url. A non-2xx status is an error that quotes the start
// of the response body.
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte, runID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", c.name, err)
	}
	req.Header.Set("Content-Type", contentType)
	if runID != "" {
		req.Header.Set(RunHeader, runID)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			return fmt.Errorf("%s request failed with status %s", c.name, resp.Status)
		}
		return fmt.Errorf("%s request failed with status %s: %s", c.name, resp.Status, msg)
	}
	return nil
}

// Close drops idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
