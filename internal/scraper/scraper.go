// Package scraper implements the poll orchestrator.
//
// One poll cycle runs a fixed sequence: case, case events, securities,
// snapshot, order books, news, tenders, leases, then a checkpoint write. A
// failed case or securities fetch aborts the whole cycle without persisting,
// so the previous checkpoint stays the last known good state. The later
// sub-steps are evaluated independently and do persist partial results even
// if a following sub-step fails; that asymmetry is deliberate.
//
// Execution is strictly sequential: one cycle completes before the next
// begins, and the only waits are the inter-cycle sleep, the rate-limit
// backoff inside the API client, and the optional pacing between book
// requests.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/rit-data/internal/api"
	"github.com/rickgao/rit-data/internal/caseevent"
	"github.com/rickgao/rit-data/internal/config"
	"github.com/rickgao/rit-data/internal/dedup"
	"github.com/rickgao/rit-data/internal/enrich"
	"github.com/rickgao/rit-data/internal/metrics"
	"github.com/rickgao/rit-data/internal/state"
	"github.com/rickgao/rit-data/internal/writer"
)

// Scraper drives poll cycles against one market session.
type Scraper struct {
	cfg    *config.ScraperConfig
	client *api.Client
	out    *writer.Outputs
	st     *state.State
	logger *slog.Logger

	// Postgres optionally mirrors snapshots and case events. Mirror
	// failures are logged and never affect the cycle.
	Postgres *writer.Postgres

	bookLimiter *rate.Limiter
	now         func() time.Time
}

// New creates a Scraper. The state is mutated in place by every cycle; the
// caller owns loading it from and the scraper owns saving it to the
// checkpoint.
func New(cfg *config.ScraperConfig, client *api.Client, out *writer.Outputs, st *state.State, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scraper{
		cfg:    cfg,
		client: client,
		out:    out,
		st:     st,
		logger: logger,
		now:    time.Now,
	}
	if cfg.Books.Delay > 0 {
		s.bookLimiter = rate.NewLimiter(rate.Every(cfg.Books.Delay), 1)
	}
	return s
}

// Run polls until the context is cancelled, or once if configured so.
// A non-nil error is fatal: unauthorized, connection lost, or the checkpoint
// became unwritable.
func (s *Scraper) Run(ctx context.Context) error {
	for {
		if err := s.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				// Shutdown mid-cycle surfaces as failed fetches; not a fault.
				return nil
			}
			return err
		}
		if s.cfg.Poll.Once {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.Poll.Interval):
		}
	}
}

// PollOnce runs one full poll cycle. A nil return with no checkpoint write
// means the cycle was aborted (case or securities unavailable); the run
// continues with the next cycle.
func (s *Scraper) PollOnce(ctx context.Context) error {
	start := s.now()
	nowTS := float64(start.UnixNano()) / float64(time.Second)
	nowStr := start.UTC().Format(time.RFC3339Nano)

	// Case first: events must be timestamped before the securities snapshot.
	res := s.client.Case(ctx)
	if err := res.Err("case"); err != nil {
		return err
	}
	if res.Status != http.StatusOK {
		s.logger.Warn("case fetch failed, aborting cycle", "status", res.Status)
		metrics.CycleAborts.Inc()
		return nil
	}
	caseObj, ok := res.Object()
	if !ok {
		s.logger.Warn("unexpected case payload shape, aborting cycle")
		metrics.CycleAborts.Inc()
		return nil
	}

	events := caseevent.Detect(s.st, caseObj, nowTS, nowStr)
	for _, ev := range events {
		if err := s.out.CaseEvents.Append(ev); err != nil {
			return err
		}
		metrics.RecordsWritten.WithLabelValues("case_events").Inc()
		s.logger.Info("case event", "event", ev.Name())
	}
	s.mirrorCaseEvents(ctx, nowStr, events)

	res = s.client.Securities(ctx)
	if err := res.Err("securities"); err != nil {
		return err
	}
	list, isList := res.List()
	if res.Status != http.StatusOK || !isList {
		s.logger.Warn("securities fetch failed, aborting cycle", "status", res.Status)
		metrics.CycleAborts.Inc()
		return nil
	}
	securities := objectItems(list)

	enriched := enrich.Securities(securities, s.st)
	tickers := tickerList(securities)

	snapshot := map[string]any{
		"ts":         nowStr,
		"case":       caseObj,
		"tickers":    tickers,
		"securities": enriched,
	}
	if err := s.out.Snapshots.Append(snapshot); err != nil {
		return err
	}
	metrics.RecordsWritten.WithLabelValues("snapshots").Inc()
	s.mirrorSnapshot(ctx, nowStr, caseObj, tickers, enriched)

	if !s.cfg.Books.Skip {
		if err := s.pollBooks(ctx, nowStr, tickers); err != nil {
			return err
		}
	}

	if !s.cfg.News.Skip {
		if err := s.pollNews(ctx, nowStr); err != nil {
			return err
		}
	}

	if !s.cfg.Tenders.Skip && !s.st.DisabledEndpoints.Has(state.EndpointTenders) {
		if err := s.pollTenders(ctx, nowStr); err != nil {
			return err
		}
	}

	if !s.cfg.Leases.Skip && !s.st.DisabledEndpoints.Has(state.EndpointLeases) {
		if err := s.pollLeases(ctx, nowStr); err != nil {
			return err
		}
	}

	if err := s.st.Save(s.out.StatePath); err != nil {
		return err
	}

	metrics.PollCycles.Inc()
	s.logger.Debug("poll cycle complete",
		"events", len(events),
		"securities", len(enriched),
		"duration", time.Since(start),
	)
	return nil
}

// pollBooks fetches order books for the selected tickers. A 429 skips that
// ticker for this cycle only; it never aborts the cycle.
func (s *Scraper) pollBooks(ctx context.Context, nowStr string, all []string) error {
	for _, ticker := range s.selectBookTickers(all) {
		if s.bookLimiter != nil {
			if err := s.bookLimiter.Wait(ctx); err != nil {
				return nil
			}
		}

		res := s.client.Book(ctx, ticker, s.cfg.Books.Limit)
		if res.Status == http.StatusTooManyRequests {
			s.logger.Warn("rate-limited on book, skipping ticker", "ticker", ticker)
			continue
		}
		if err := res.Err("book:" + ticker); err != nil {
			return err
		}
		if res.Status != http.StatusOK {
			continue
		}

		record := map[string]any{"ts": nowStr, "ticker": ticker, "book": res.Payload}
		if err := s.out.Books.Append(record); err != nil {
			return err
		}
		metrics.RecordsWritten.WithLabelValues("books").Inc()
	}
	return nil
}

// pollNews fetches news items after the last seen id, writes them in id
// order, and advances the incremental cursor.
func (s *Scraper) pollNews(ctx context.Context, nowStr string) error {
	res := s.client.News(ctx, s.cfg.News.Limit, s.st.LastNewsID)
	if err := res.Err("news"); err != nil {
		return err
	}
	list, isList := res.List()
	if res.Status != http.StatusOK || !isList {
		return nil
	}

	items := objectItems(list)
	sort.SliceStable(items, func(i, j int) bool {
		return newsID(items[i]) < newsID(items[j])
	})

	for _, item := range items {
		if id, ok := item["news_id"].(float64); ok {
			newID := int64(id)
			if s.st.LastNewsID == nil || newID > *s.st.LastNewsID {
				s.st.LastNewsID = &newID
			}
		}
		if err := s.out.News.Append(map[string]any{"ts": nowStr, "news": item}); err != nil {
			return err
		}
		metrics.RecordsWritten.WithLabelValues("news").Inc()
	}
	return nil
}

// pollTenders fetches tenders and records new or changed ones. A 404 latches
// the endpoint off for the rest of the checkpoint's life.
func (s *Scraper) pollTenders(ctx context.Context, nowStr string) error {
	res := s.client.Tenders(ctx)
	if res.Status == http.StatusNotFound {
		s.st.DisabledEndpoints.Add(state.EndpointTenders)
		s.logger.Info("tenders endpoint not found, disabling permanently")
		return nil
	}
	if err := res.Err("tenders"); err != nil {
		return err
	}
	list, isList := res.List()
	if res.Status != http.StatusOK || !isList {
		return nil
	}

	count, err := dedup.Record(objectItems(list), s.st.LastTenders, "tender_id", func(item map[string]any) error {
		return s.out.Tenders.Append(map[string]any{"ts": nowStr, "tender": item})
	})
	if err != nil {
		return err
	}
	if count > 0 {
		metrics.RecordsWritten.WithLabelValues("tenders").Add(float64(count))
		s.logger.Info("recorded tenders", "count", count)
	}
	return nil
}

// pollLeases mirrors pollTenders for the leases endpoint, tracked
// independently.
func (s *Scraper) pollLeases(ctx context.Context, nowStr string) error {
	res := s.client.Leases(ctx)
	if res.Status == http.StatusNotFound {
		s.st.DisabledEndpoints.Add(state.EndpointLeases)
		s.logger.Info("leases endpoint not found, disabling permanently")
		return nil
	}
	if err := res.Err("leases"); err != nil {
		return err
	}
	list, isList := res.List()
	if res.Status != http.StatusOK || !isList {
		return nil
	}

	count, err := dedup.Record(objectItems(list), s.st.LastLeases, "id", func(item map[string]any) error {
		return s.out.Leases.Append(map[string]any{"ts": nowStr, "lease": item})
	})
	if err != nil {
		return err
	}
	if count > 0 {
		metrics.RecordsWritten.WithLabelValues("leases").Add(float64(count))
		s.logger.Info("recorded leases", "count", count)
	}
	return nil
}

// selectBookTickers picks the tickers to pull books for: the configured
// comma-list if set, otherwise all, capped by the configured max.
func (s *Scraper) selectBookTickers(all []string) []string {
	tickers := all
	if s.cfg.Books.Tickers != "" {
		tickers = tickers[:0:0]
		for _, t := range strings.Split(s.cfg.Books.Tickers, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
	}
	if s.cfg.Books.Max > 0 && len(tickers) > s.cfg.Books.Max {
		tickers = tickers[:s.cfg.Books.Max]
	}
	return tickers
}

func (s *Scraper) mirrorSnapshot(ctx context.Context, ts string, caseObj map[string]any, tickers []string, securities []map[string]any) {
	if s.Postgres == nil {
		return
	}
	if err := s.Postgres.WriteSnapshot(ctx, ts, caseObj, tickers, securities); err != nil {
		s.logger.Warn("snapshot mirror write failed", "error", err)
	}
}

func (s *Scraper) mirrorCaseEvents(ctx context.Context, ts string, events []caseevent.Event) {
	if s.Postgres == nil || len(events) == 0 {
		return
	}
	records := make([]map[string]any, len(events))
	for i, ev := range events {
		records[i] = map[string]any(ev)
	}
	if err := s.Postgres.WriteCaseEvents(ctx, ts, records); err != nil {
		s.logger.Warn("case event mirror write failed", "error", err)
	}
}

// objectItems keeps the JSON objects from a decoded array, skipping any
// stray non-object elements.
func objectItems(list []any) []map[string]any {
	items := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if obj, ok := v.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items
}

// tickerList collects the non-empty ticker symbols in input order.
func tickerList(securities []map[string]any) []string {
	tickers := make([]string, 0, len(securities))
	for _, sec := range securities {
		if t, ok := sec["ticker"].(string); ok && t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

func newsID(item map[string]any) float64 {
	id, _ := item["news_id"].(float64)
	return id
}
