// Package skyportal is the REST client for the source-management platform.
package skyportal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FinkBridge/internal/config"
	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

const maxResponseBytes = 8 << 20

// Client talks to the platform API with a token header.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ ports.Platform = (*Client)(nil)
var _ ports.PlatformAdmin = (*Client)(nil)

// NewClient creates a reusable HTTP client from configuration.
func NewClient(cfg config.SkyPortalConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithHTTP(cfg.URL, cfg.Token, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP wires an explicit http.Client, mainly for tests.
func NewClientWithHTTP(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs one API call. Non-200 replies become *domain.StatusError; anything
// else that goes wrong is a transport error.
func (c *Client) do(ctx context.Context, method, path string, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &domain.StatusError{
			Code:    resp.StatusCode,
			Message: errorMessage(resp.Header.Get("Content-Type"), raw),
		}
	}

	if v == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}
