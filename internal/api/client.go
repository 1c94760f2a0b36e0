package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Client provides access to the RIT REST API.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries int           // extra attempts after a rate-limited response
	retryWait  time.Duration // fallback backoff when the server gives no wait
	newsParam  string        // incremental news query param: "since" (client) or "after" (DMA)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. headers carry the authentication
// for the active connection mode (see the auth package).
func NewClient(baseURL string, headers map[string]string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		headers: headers,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     slog.Default(),
		maxRetries: 2,
		retryWait:  500 * time.Millisecond,
		newsParam:  "since",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the rate-limit retry configuration.
func WithRetries(max int, fallbackWait time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryWait = fallbackWait
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNewsParam sets the query parameter name for incremental news fetches.
// The DMA API calls it "after"; the client API calls it "since".
func WithNewsParam(name string) ClientOption {
	return func(c *Client) {
		c.newsParam = name
	}
}
