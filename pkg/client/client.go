package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loykin/devsrv/internal/frontend"
)

// Client talks to a running devsrv daemon over its control API.
type Client struct {
	baseURL string
	client  *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns the default daemon endpoint.
func DefaultConfig() Config {
	return Config{BaseURL: "http://localhost:8080", Timeout: 10 * time.Second}
}

// New creates a control API client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Start asks the daemon to run its failover start sequence. The call
// blocks for up to the daemon's readiness window, so callers should
// configure a generous timeout.
func (c *Client) Start(ctx context.Context) (frontend.Result, error) {
	var res frontend.Result
	err := c.do(ctx, http.MethodPost, "/start", &res)
	return res, err
}

// Stop asks the daemon to tear the dev server down.
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/stop", nil)
}

// Build runs the configured build command on the daemon.
func (c *Client) Build(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/build", nil)
}

// Status fetches the supervisor snapshot.
func (c *Client) Status(ctx context.Context) (frontend.Status, error) {
	var st frontend.Status
	err := c.do(ctx, http.MethodGet, "/status", &st)
	return st, err
}

// Health reports whether the supervised server currently answers 200.
func (c *Client) Health(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, string(body))
	}
	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}
