// Package api provides the RIT REST API client.
//
// Consumed endpoints (GET, JSON):
//   - /v1/case
//   - /v1/securities
//   - /v1/securities/book?ticker=&limit=
//   - /v1/news?limit=&since=|after=
//   - /v1/tenders
//   - /v1/leases
//
// Authentication is an X-API-Key header (client mode) or HTTP Basic (DMA
// mode); the client is handed prebuilt headers and does not care which.
// Rate limiting is signaled by a 429 with the wait conveyed in a "wait"
// payload field or a Retry-After header.
package api
