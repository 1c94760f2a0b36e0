// speedtest measures sequential REST throughput against the book endpoint
// and prints the achieved requests per second.
//
// Usage: go run ./cmd/speedtest --config configs/scraper.local.yaml --ticker CRZY
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rickgao/rit-data/internal/api"
	"github.com/rickgao/rit-data/internal/auth"
	"github.com/rickgao/rit-data/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/scraper.local.yaml", "path to config file")
	ticker := flag.String("ticker", "CRZY", "ticker to request")
	requests := flag.Int("requests", 500, "number of requests to issue")
	progressEvery := flag.Int("progress", 25, "print progress every N requests")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	mode := auth.ResolveMode(cfg.Creds, cfg.Mode)
	baseURL, err := auth.ResolveBaseURL(cfg.Creds, mode, cfg.API.BaseURL)
	if err != nil {
		logger.Error("failed to resolve base URL", "error", err)
		os.Exit(1)
	}
	headers, err := auth.Headers(cfg.Creds, mode)
	if err != nil {
		logger.Error("failed to build auth headers", "error", err)
		os.Exit(1)
	}

	// No retries: a 429 counts as a completed round trip here.
	client := api.NewClient(baseURL, headers,
		api.WithLogger(logger),
		api.WithRetries(0, 0),
	)

	ctx := context.Background()
	start := time.Now()
	for i := 1; i <= *requests; i++ {
		res := client.Book(ctx, *ticker, 1)
		if res.Status == 0 || res.Status == http.StatusUnauthorized {
			logger.Error("request failed", "status", res.Status, "payload", res.Payload)
			os.Exit(1)
		}
		if i%*progressEvery == 0 {
			elapsed := time.Since(start).Seconds()
			fmt.Printf("%d requests, current speed %.1f req/s\n", i, float64(i)/elapsed)
		}
	}

	elapsed := time.Since(start).Seconds()
	fmt.Printf("%d requests in %.3fs: %.1f req/s\n", *requests, elapsed, float64(*requests)/elapsed)
}
