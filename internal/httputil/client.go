// Package httputil provides the outbound HTTP client used to talk to Saleor
// instances and the JSON response helpers shared by the HTTP handlers.
package httputil

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

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 8 << 20
	errorBodyLimit      = 64 << 10
)

// Client is a small JSON-over-HTTP client with a bounded response size.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// ClientConfig configures the client.
type ClientConfig struct {
	// Timeout caps a single round trip. Callers usually also bound the call
	// through the request context.
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// Transport overrides the default transport (tests, proxies).
	Transport http.RoundTripper
}

// NewClient creates a client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: maxBody,
	}
}

// StatusError is returned by Do for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Do sends body (JSON-encoded when non-nil) and returns the response body.
// Non-2xx responses yield a *StatusError carrying a truncated body excerpt.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, truncated, readErr := ReadAllWithLimit(resp.Body, errorBodyLimit)
		if readErr != nil {
			return nil, &StatusError{StatusCode: resp.StatusCode}
		}
		msg := strings.TrimSpace(string(excerpt))
		if truncated {
			msg += "...(truncated)"
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	data, err := ReadAllStrict(resp.Body, c.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

// PostJSON performs a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, body interface{}) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, url, header, body)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, url, header, nil)
}
