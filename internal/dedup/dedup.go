// Package dedup implements keyed change detection over polled item
// collections (tenders, leases).
//
// Each item is keyed by a stable external id and reduced to a canonical
// fingerprint of its full field set. A record is emitted when the
// fingerprint for a key changes: on first sight and on any later content
// change, not only on creation.
package dedup

import (
	"fmt"

	"github.com/rickgao/rit-data/internal/state"
)

// EmitFunc receives each newly seen or changed item.
type EmitFunc func(item map[string]any) error

// Record diffs items against seen (key -> fingerprint), updating seen and
// emitting changed items. Items lacking the id field are skipped silently.
// Returns the number of emitted records.
func Record(items []map[string]any, seen map[string]string, idField string, emit EmitFunc) (int, error) {
	count := 0
	for _, item := range items {
		rawID, ok := item[idField]
		if !ok || rawID == nil {
			continue
		}
		key := keyString(rawID)

		fp := state.Fingerprint(item)
		if seen[key] == fp {
			continue
		}
		seen[key] = fp

		if err := emit(item); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// keyString renders an id value as a map key. JSON ids are numbers or
// strings; integral floats render without a fraction so ids stay stable.
func keyString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
		return fmt.Sprintf("%v", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}
