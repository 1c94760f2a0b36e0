// Package metrics exposes Prometheus counters for the scraper and an
// optional HTTP endpoint to serve them.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PollCycles counts completed poll cycles (persisted state at the end).
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rit_poll_cycles_total",
		Help: "Completed poll cycles.",
	})

	// CycleAborts counts cycles abandoned before persisting (case or
	// securities fetch failed).
	CycleAborts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rit_poll_cycle_aborts_total",
		Help: "Poll cycles aborted before persisting state.",
	})

	// RateLimited counts 429 responses that triggered a backoff.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rit_api_rate_limited_total",
		Help: "Rate-limited API responses.",
	})

	// RecordsWritten counts records appended per output stream.
	RecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rit_records_written_total",
		Help: "Records appended to output streams.",
	}, []string{"stream"})
)

// Serve starts the metrics HTTP server in the background. Errors after
// startup are logged, not returned; the scraper does not depend on metrics.
func Serve(port int, path string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Handle(path, promhttp.Handler()).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "port", port, "path", path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
}
