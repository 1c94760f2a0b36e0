// Package writer persists scraped records: append-only JSONL streams as the
// primary output, plus an optional Postgres mirror for snapshots and case
// events.
package writer

import "path/filepath"

// Outputs bundles the per-stream JSONL writers and the checkpoint path for
// one output directory.
type Outputs struct {
	Snapshots  *JSONL
	Books      *JSONL
	News       *JSONL
	Tenders    *JSONL
	Leases     *JSONL
	CaseEvents *JSONL
	StatePath  string
}

// NewOutputs lays out the output files under dir.
func NewOutputs(dir string) *Outputs {
	return &Outputs{
		Snapshots:  NewJSONL(filepath.Join(dir, "snapshots.jsonl")),
		Books:      NewJSONL(filepath.Join(dir, "books.jsonl")),
		News:       NewJSONL(filepath.Join(dir, "news.jsonl")),
		Tenders:    NewJSONL(filepath.Join(dir, "tenders.jsonl")),
		Leases:     NewJSONL(filepath.Join(dir, "leases.jsonl")),
		CaseEvents: NewJSONL(filepath.Join(dir, "case_events.jsonl")),
		StatePath:  filepath.Join(dir, "state.json"),
	}
}

// Close closes all stream writers.
func (o *Outputs) Close() {
	o.Snapshots.Close()
	o.Books.Close()
	o.News.Close()
	o.Tenders.Close()
	o.Leases.Close()
	o.CaseEvents.Close()
}
