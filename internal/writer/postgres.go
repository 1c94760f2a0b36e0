package writer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/rit-data/internal/state"
)

// Postgres mirrors snapshots and case events into Postgres, tagged with a
// per-run session id. JSONL remains the primary output; a failed mirror
// write is logged by the caller and does not affect the cycle.
type Postgres struct {
	pool   *pgxpool.Pool
	runID  uuid.UUID
	logger *slog.Logger
}

// NewPostgres creates a Postgres mirror writer.
func NewPostgres(pool *pgxpool.Pool, runID uuid.UUID, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{
		pool:   pool,
		runID:  runID,
		logger: logger,
	}
}

// EnsureSchema creates the mirror tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS snapshots (
	ts         timestamptz NOT NULL,
	run_id     uuid        NOT NULL,
	case_data  jsonb       NOT NULL,
	tickers    text[]      NOT NULL,
	securities jsonb       NOT NULL
);
CREATE TABLE IF NOT EXISTS case_events (
	ts      timestamptz NOT NULL,
	run_id  uuid        NOT NULL,
	event   text        NOT NULL,
	payload jsonb       NOT NULL
);`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// WriteSnapshot inserts one poll snapshot.
func (p *Postgres) WriteSnapshot(ctx context.Context, ts string, caseObj map[string]any, tickers []string, securities []map[string]any) error {
	caseJSON, err := state.MarshalASCII(caseObj)
	if err != nil {
		return fmt.Errorf("encode case: %w", err)
	}
	secJSON, err := state.MarshalASCII(securities)
	if err != nil {
		return fmt.Errorf("encode securities: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO snapshots (ts, run_id, case_data, tickers, securities)
		 VALUES ($1, $2, $3::jsonb, $4, $5::jsonb)`,
		ts, p.runID, string(caseJSON), tickers, string(secJSON),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// WriteCaseEvents inserts a cycle's case events in one batch.
func (p *Postgres) WriteCaseEvents(ctx context.Context, ts string, events []map[string]any) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ev := range events {
		name, _ := ev["event"].(string)
		payload, err := state.MarshalASCII(ev)
		if err != nil {
			return fmt.Errorf("encode case event: %w", err)
		}
		batch.Queue(
			`INSERT INTO case_events (ts, run_id, event, payload)
			 VALUES ($1, $2, $3, $4::jsonb)`,
			ts, p.runID, name, string(payload),
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert case event: %w", err)
		}
	}
	return nil
}
