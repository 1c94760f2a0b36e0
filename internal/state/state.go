// Package state holds the scraper's cross-cycle session memory and its
// checkpoint persistence.
//
// The checkpoint (state.json) is the single document needed to resume a run
// without reprocessing history: price history for enrichment, the last case
// snapshot and timing anchors for event detection, dedup fingerprints for
// tenders/leases, and the set of endpoints confirmed absent.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Endpoint names used in the disabled set.
const (
	EndpointTenders = "tenders"
	EndpointLeases  = "leases"
)

// Prices holds the last observed trade and mid price for a ticker.
type Prices struct {
	Last *float64 `json:"last"`
	Mid  *float64 `json:"mid"`
}

// State is the scraper's session memory. It is mutated in place by every poll
// cycle and rewritten to the checkpoint at the end of each cycle.
type State struct {
	LastNewsID        *int64             `json:"last_news_id"`
	LastPrices        map[string]Prices  `json:"last_prices"`
	FirstPrices       map[string]float64 `json:"first_prices"`
	LastCase          map[string]any     `json:"last_case"`
	LastTickTS        *float64           `json:"last_tick_ts"`
	LastPeriodTS      *float64           `json:"last_period_ts"`
	LastTenders       map[string]string  `json:"last_tenders"`
	LastLeases        map[string]string  `json:"last_leases"`
	DisabledEndpoints EndpointSet        `json:"disabled_endpoints"`
}

// New returns an empty state with all maps initialized.
func New() *State {
	return &State{
		LastPrices:        make(map[string]Prices),
		FirstPrices:       make(map[string]float64),
		LastTenders:       make(map[string]string),
		LastLeases:        make(map[string]string),
		DisabledEndpoints: make(EndpointSet),
	}
}

// Load reads a checkpoint from path. A missing file yields an empty state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}

	// Maps may come back nil from an older or hand-edited checkpoint.
	if st.LastPrices == nil {
		st.LastPrices = make(map[string]Prices)
	}
	if st.FirstPrices == nil {
		st.FirstPrices = make(map[string]float64)
	}
	if st.LastTenders == nil {
		st.LastTenders = make(map[string]string)
	}
	if st.LastLeases == nil {
		st.LastLeases = make(map[string]string)
	}
	if st.DisabledEndpoints == nil {
		st.DisabledEndpoints = make(EndpointSet)
	}

	return st, nil
}

// Save atomically rewrites the checkpoint at path. The document is written
// whole (temp file + rename), pretty-printed and ASCII-safe.
func (s *State) Save(path string) error {
	data, err := MarshalIndentASCII(s)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// EndpointSet is a set of endpoint names, serialized as a sorted JSON array.
type EndpointSet map[string]struct{}

// Add inserts an endpoint name. Once added, a name is never removed within a
// run; the set persists across restarts via the checkpoint.
func (s EndpointSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether the endpoint is disabled.
func (s EndpointSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// MarshalJSON encodes the set as a sorted array of names.
func (s EndpointSet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return json.Marshal(names)
}

// UnmarshalJSON decodes an array of names into the set.
func (s *EndpointSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set := make(EndpointSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	*s = set
	return nil
}
