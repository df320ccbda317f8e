// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

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

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the backend endpoint used when none is configured.
	DefaultBaseURL = "http://localhost:8000"

	// defaultTimeout bounds non-streaming requests. Answer generation can
	// take a while on large contexts, so this is generous.
	defaultTimeout = 120 * time.Second

	// maxErrorBodySize caps how much of an error response body is read
	// when extracting a detail message.
	maxErrorBodySize = 64 * 1024
)

// =============================================================================
// SHARED HTTP CLIENTS
// =============================================================================

// Shared transports so connection pools are reused across client instances.
var (
	sharedHTTPClient = &http.Client{
		Timeout: defaultTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// sharedStreamingClient has no timeout: streamed responses run until
	// the server finishes or the request context is cancelled.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to an orgrag backend over HTTP. Identity (user and
// organization ids) is passed per call, mirroring the wire protocol. The
// zero value is not usable; construct with NewClient.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client for the backend at baseURL. An empty baseURL
// falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}
}

// WithHTTPClient overrides the client used for non-streaming requests.
// Mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets a custom timeout for non-streaming requests. Streaming
// requests remain bounded only by their context.
func (c *Client) WithTimeout(d time.Duration) *Client {
	// Copy so the shared client's timeout is untouched.
	hc := *c.httpClient
	hc.Timeout = d
	c.httpClient = &hc
	return c
}

// BaseURL returns the backend endpoint this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// getJSON performs a GET and decodes a JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransportError{Err: err}
	}
	return c.doJSON(req, out)
}

// postJSON performs a POST with a JSON body and decodes a JSON response
// into out. A nil out discards the response body.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

// doJSON executes the request, maps error statuses to TransportError, and
// decodes a success body into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorFromResponse builds a TransportError from a non-success response,
// extracting the backend's detail message when present.
func errorFromResponse(resp *http.Response) *TransportError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	fallback := fmt.Sprintf("server returned %s", resp.Status)
	return &TransportError{
		Status: resp.StatusCode,
		Detail: extractDetail(body, fallback),
	}
}

// =============================================================================
// HEALTH AND STATS
// =============================================================================

// Health checks that the backend is reachable and reports itself healthy.
func (c *Client) Health(ctx context.Context) error {
	var hr healthResponse
	if err := c.getJSON(ctx, "/health", &hr); err != nil {
		return err
	}
	if hr.Status != "healthy" && hr.Status != "ok" {
		return &TransportError{Detail: fmt.Sprintf("backend unhealthy: %s", hr.Status)}
	}
	return nil
}

// Stats fetches document index statistics from the backend.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := c.getJSON(ctx, "/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}
