package api

import (
	"context"
	"net/url"
	"strconv"
)

// Case fetches the current case status.
func (c *Client) Case(ctx context.Context) Result {
	return c.getWithRetry(ctx, "/v1/case", nil)
}

// Securities fetches the full securities list with current quotes.
func (c *Client) Securities(ctx context.Context) Result {
	return c.getWithRetry(ctx, "/v1/securities", nil)
}

// Book fetches the order book for a ticker, limit levels per side.
func (c *Client) Book(ctx context.Context, ticker string, limit int) Result {
	query := url.Values{}
	query.Set("ticker", ticker)
	query.Set("limit", strconv.Itoa(limit))
	return c.getWithRetry(ctx, "/v1/securities/book", query)
}

// News fetches up to limit news items. A non-nil since restricts the query to
// items newer than that id, using the parameter name for the active
// connection mode.
func (c *Client) News(ctx context.Context, limit int, since *int64) Result {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if since != nil {
		query.Set(c.newsParam, strconv.FormatInt(*since, 10))
	}
	return c.getWithRetry(ctx, "/v1/news", query)
}

// Tenders fetches active tender offers. Not every case supports tenders; 404
// means the endpoint is absent.
func (c *Client) Tenders(ctx context.Context) Result {
	return c.getWithRetry(ctx, "/v1/tenders", nil)
}

// Leases fetches active leases. As with tenders, 404 means absent.
func (c *Client) Leases(ctx context.Context) Result {
	return c.getWithRetry(ctx, "/v1/leases", nil)
}
