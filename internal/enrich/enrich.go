// Package enrich computes derived price metrics for polled securities.
//
// Each security gains a mid price and three delta/percent pairs: versus the
// previous poll's last, versus the previous poll's mid, and versus the first
// last-price seen this session. The price history lives in the scrape state,
// which this package reads and updates in place.
package enrich

import (
	"maps"

	"github.com/rickgao/rit-data/internal/state"
)

// Securities enriches each security in input order. Absent or malformed
// numeric fields degrade the derived values to null rather than failing.
func Securities(securities []map[string]any, st *state.State) []map[string]any {
	enriched := make([]map[string]any, 0, len(securities))

	for _, sec := range securities {
		ticker, _ := sec["ticker"].(string)
		last := numField(sec, "last")
		bid := numField(sec, "bid")
		ask := numField(sec, "ask")

		var mid *float64
		if bid != nil && ask != nil {
			m := (*bid + *ask) / 2
			mid = &m
		}

		var prev state.Prices
		if ticker != "" {
			prev = st.LastPrices[ticker]
		}

		// First sight of a ticker with a usable last price pins the
		// session-start reference. Write-once: never overwritten after.
		if ticker != "" {
			if _, seen := st.FirstPrices[ticker]; !seen && last != nil {
				st.FirstPrices[ticker] = *last
			}
		}
		var first *float64
		if ticker != "" {
			if f, ok := st.FirstPrices[ticker]; ok {
				first = &f
			}
		}

		if ticker != "" {
			st.LastPrices[ticker] = state.Prices{Last: last, Mid: mid}
		}

		out := maps.Clone(sec)
		out["mid"] = nullable(mid)
		out["delta_last"] = nullable(diff(last, prev.Last))
		out["pct_last"] = nullable(pct(last, prev.Last))
		out["delta_mid"] = nullable(diff(mid, prev.Mid))
		out["pct_mid"] = nullable(pct(mid, prev.Mid))
		out["delta_from_start"] = nullable(diff(last, first))
		out["pct_from_start"] = nullable(pct(last, first))
		enriched = append(enriched, out)
	}

	return enriched
}

// diff returns current - prev, or nil if either side is missing.
func diff(current, prev *float64) *float64 {
	if current == nil || prev == nil {
		return nil
	}
	d := *current - *prev
	return &d
}

// pct returns the percent change from prev to current, or nil if either side
// is missing or prev is zero.
func pct(current, prev *float64) *float64 {
	if current == nil || prev == nil || *prev == 0 {
		return nil
	}
	p := (*current - *prev) / *prev * 100
	return &p
}

// numField reads a JSON number field; nil when absent or non-numeric.
func numField(m map[string]any, key string) *float64 {
	if v, ok := m[key].(float64); ok {
		return &v
	}
	return nil
}

// nullable unwraps a pointer for storage in a JSON object, mapping nil
// pointers to an explicit JSON null.
func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
