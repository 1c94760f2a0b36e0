// pricewatch polls one security's order book and prints it in place.
// Diagnostic tool; no state is kept and nothing is written to disk.
//
// Usage: go run ./cmd/pricewatch --config configs/scraper.local.yaml --ticker CRZY
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/rickgao/rit-data/internal/api"
	"github.com/rickgao/rit-data/internal/auth"
	"github.com/rickgao/rit-data/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/scraper.local.yaml", "path to config file")
	ticker := flag.String("ticker", "ABC", "ticker to watch")
	interval := flag.Duration("interval", 500*time.Millisecond, "poll interval")
	depth := flag.Int("depth", 5, "order book depth to request/display")
	noClear := flag.Bool("no-clear", false, "do not clear screen between updates")
	testRate := flag.Bool("test-rate", false, "stress-test update speed until rate-limited (HTTP 429)")
	maxRequests := flag.Int("max-requests", 5000, "max requests during rate test")
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

	opts := []api.ClientOption{api.WithLogger(logger)}
	if *testRate {
		// A 429 is the measurement, not something to retry through.
		opts = append(opts, api.WithRetries(0, 0))
	}
	client := api.NewClient(baseURL, headers, opts...)

	if *testRate {
		os.Exit(rateTest(client, *ticker, *maxRequests))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	for ctx.Err() == nil {
		res := client.Book(ctx, *ticker, *depth)
		if err := res.Err("book"); err != nil {
			logger.Error("fetch failed", "error", err)
			os.Exit(1)
		}

		clearScreen(!*noClear)
		if res.Status != http.StatusOK {
			fmt.Printf("HTTP %d: %v\n", res.Status, res.Payload)
			sleep(ctx, *interval)
			continue
		}

		fmt.Printf("Base: %s\n", baseURL)
		fmt.Printf("Ticker: %s\n", *ticker)
		fmt.Printf("Updated: %s\n\n", time.Now().Format("15:04:05"))
		if book, ok := res.Object(); ok {
			printBook(book, *depth)
		} else {
			fmt.Printf("%v\n", res.Payload)
		}

		sleep(ctx, *interval)
	}
}

// rateTest hammers the book endpoint until the server answers 429, then
// reports the achieved request rate and the advertised wait.
func rateTest(client *api.Client, ticker string, maxRequests int) int {
	ctx := context.Background()
	start := time.Now()

	for count := 1; count <= maxRequests; count++ {
		res := client.Book(ctx, ticker, 1)

		if res.Status == http.StatusTooManyRequests {
			elapsed := time.Since(start).Seconds()
			fmt.Printf("Rate limited after %d requests in %.3fs (~%.1f req/s).\n",
				count, elapsed, float64(count)/elapsed)
			fmt.Printf("Retry-After / wait: %gs\n", advertisedWait(res))
			return 0
		}
		if res.Status != http.StatusOK {
			fmt.Printf("HTTP %d: %v\n", res.Status, res.Payload)
			return 1
		}
	}

	elapsed := time.Since(start).Seconds()
	fmt.Printf("No 429 within %d requests in %.3fs (~%.1f req/s).\n",
		maxRequests, elapsed, float64(maxRequests)/elapsed)
	return 0
}

// advertisedWait reads the server-directed backoff from a 429 result:
// payload "wait" field, else Retry-After header, else 1s.
func advertisedWait(res api.Result) float64 {
	if obj, ok := res.Object(); ok {
		switch v := obj["wait"].(type) {
		case float64:
			return v
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	if res.Header != nil {
		if v := res.Header.Get("Retry-After"); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return 1
}

// clearScreen emits ANSI clear + cursor home.
func clearScreen(enabled bool) {
	if enabled {
		fmt.Print("\x1b[2J\x1b[H")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func printBook(book map[string]any, depth int) {
	meta := make([]string, 0, len(book))
	for k := range book {
		switch k {
		case "bids", "asks", "bid", "ask":
		default:
			meta = append(meta, k)
		}
	}
	sort.Strings(meta)
	for _, k := range meta {
		fmt.Printf("%s: %v\n", k, book[k])
	}
	if len(meta) > 0 {
		fmt.Println()
	}

	bids := levels(book, "bids", "bid")
	asks := levels(book, "asks", "ask")

	fmt.Println("Order Book (top levels)")
	fmt.Println("Side |      Price |        Qty")
	fmt.Println("-----+------------+-----------")

	rows := max(len(bids), len(asks))
	if rows > depth {
		rows = depth
	}
	for i := 0; i < rows; i++ {
		if i < len(bids) {
			printLevel("BID", bids[i])
		}
		if i < len(asks) {
			printLevel("ASK", asks[i])
		}
	}
}

func levels(book map[string]any, keys ...string) []map[string]any {
	for _, key := range keys {
		list, ok := book[key].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, v := range list {
			if lvl, ok := v.(map[string]any); ok {
				out = append(out, lvl)
			}
		}
		return out
	}
	return nil
}

func printLevel(side string, lvl map[string]any) {
	price := lvl["price"]
	var qty any
	for _, key := range []string{"quantity", "qty", "size", "volume"} {
		if v, ok := lvl[key]; ok {
			qty = v
			break
		}
	}
	fmt.Printf("%-4s | %10v | %10v\n", side, price, qty)
}
