package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/rit-data/internal/metrics"
)

// Sentinel errors for the fatal fetch outcomes. Everything else is conveyed
// through Result.Status and handled per-resource by the caller.
var (
	// ErrUnauthorized marks a 401 response. Never retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConnection marks a transport-level failure (no response at all).
	ErrConnection = errors.New("connection failed")
)

// Result is one fetch outcome. Status 0 means no response was received.
// Payload holds the decoded JSON body; a body that fails to decode is wrapped
// as {"raw": <text>} so downstream shape checks fail gracefully.
type Result struct {
	Status  int
	Payload any
	Header  http.Header
}

// Err maps the fatal status classes to sentinel errors: 401 and connection
// failure abort the whole run. label names the resource for the message.
func (r Result) Err(label string) error {
	switch r.Status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w (check credentials)", label, ErrUnauthorized)
	case 0:
		return fmt.Errorf("%s: %w", label, ErrConnection)
	}
	return nil
}

// Object returns the payload as a JSON object.
func (r Result) Object() (map[string]any, bool) {
	obj, ok := r.Payload.(map[string]any)
	return obj, ok
}

// List returns the payload as a JSON array.
func (r Result) List() ([]any, bool) {
	list, ok := r.Payload.([]any)
	return list, ok
}

// do performs a single GET and decodes the response. Transport failures are
// reported as a Result with Status 0 rather than an error, so callers deal
// with one shape for every outcome.
func (c *Client) do(ctx context.Context, path string, query url.Values) Result {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Result{Status: 0, Payload: map[string]any{"error": err.Error()}}
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Status: 0, Payload: map[string]any{"error": err.Error()}}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: 0, Payload: map[string]any{"error": err.Error()}}
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = map[string]any{"raw": string(body)}
	}

	return Result{Status: resp.StatusCode, Payload: payload, Header: resp.Header}
}

// getWithRetry performs a GET, retrying on rate-limited responses. The wait
// comes from the server (payload "wait" field, else Retry-After header) with
// a fixed fallback. If retries exhaust, the last rate-limited result is
// returned for the caller to classify.
func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values) Result {
	var res Result
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		res = c.do(ctx, path, query)
		if res.Status != http.StatusTooManyRequests {
			return res
		}

		metrics.RateLimited.Inc()
		wait := c.retryAfter(res)
		c.logger.Debug("rate limited, backing off",
			"path", path,
			"wait", wait,
			"attempt", attempt+1,
		)

		select {
		case <-ctx.Done():
			return res
		case <-time.After(wait):
		}
	}
	return res
}

// retryAfter extracts the server-directed wait from a rate-limited result.
// Negative or unparsable values clamp to the configured fallback.
func (c *Client) retryAfter(res Result) time.Duration {
	var raw any
	if obj, ok := res.Object(); ok {
		raw = obj["wait"]
	}
	if raw == nil && res.Header != nil {
		if v := res.Header.Get("Retry-After"); v != "" {
			raw = v
		}
	}

	var secs float64
	switch v := raw.(type) {
	case float64:
		secs = v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.retryWait
		}
		secs = parsed
	default:
		return c.retryWait
	}

	if secs < 0 {
		return c.retryWait
	}
	return time.Duration(secs * float64(time.Second))
}
