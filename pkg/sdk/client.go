package helpdex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 35 * time.Second

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey string
	httpc  *http.Client
}

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client. Useful for
// custom transports and test servers.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpc = hc
	})
}

// Client is the helpdex SDK entry point.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a helpdex Client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("helpdex: base URL required")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpc == nil {
		cfg.httpc = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		httpc:   cfg.httpc,
	}, nil
}

// Search runs a search query.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RateLimit reports the caller's current quota state without consuming
// quota.
func (c *Client) RateLimit(ctx context.Context) (*RateLimitStatus, error) {
	var resp RateLimitStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/rate-limit", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Metrics fetches the service's in-process metrics snapshot.
func (c *Client) Metrics(ctx context.Context) (*MetricsSnapshot, error) {
	var resp MetricsSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/metrics", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the health of the service. A degraded service still
// returns a status without error; only transport failures error.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("helpdex: health request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// 503 carries the same body shape as 200
	var resp HealthStatus
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("helpdex: decode health response: %w", err)
	}
	return &resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("helpdex: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("helpdex: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("helpdex: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("helpdex: decode response: %w", err)
	}
	return nil
}

func parseErrorResponse(resp *http.Response) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	sentinel, ok := codeSentinels[payload.Code]
	if !ok {
		sentinel = ErrInternal
	}

	if errors.Is(sentinel, ErrRateLimited) {
		if sec, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			sentinel = &RateLimitedError{RetryAfter: time.Duration(sec) * time.Second}
		}
	}

	return &apiError{
		sentinel: sentinel,
		code:     payload.Code,
		message:  payload.Message,
		status:   resp.StatusCode,
	}
}
