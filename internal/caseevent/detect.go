// Package caseevent detects transitions in the tracked case snapshot.
//
// The detector is a two-state machine: before the first observed case it is
// uninitialized; the first poll emits a single case_start and every poll
// after that diffs the tracked fields against the stored snapshot. There is
// no exit from the tracking state.
package caseevent

import "github.com/rickgao/rit-data/internal/state"

// Event names, in emission order for a single cycle.
const (
	CaseStart    = "case_start"
	CaseChange   = "case_change"
	StatusChange = "status_change"
	PeriodChange = "period_change"
	TickChange   = "tick_change"
)

// Event is one case event record, shaped exactly as written to the event
// log. Every event carries "ts" and "event"; change events carry "prev" and
// "current"; period/tick changes carry their elapsed-seconds field, null when
// no prior anchor existed.
type Event map[string]any

// Name returns the event type.
func (e Event) Name() string {
	name, _ := e["event"].(string)
	return name
}

// Detect compares the polled case against the stored snapshot and returns
// the events for this cycle. It updates the snapshot and the period/tick
// timing anchors in st. nowTS is the poll time in unix seconds; nowStr is
// the same instant formatted for the event records.
func Detect(st *state.State, c map[string]any, nowTS float64, nowStr string) []Event {
	if st.LastCase == nil {
		st.LastTickTS = &nowTS
		st.LastPeriodTS = &nowTS
		st.LastCase = c
		return []Event{{
			"ts":    nowStr,
			"event": CaseStart,
			"case":  c,
		}}
	}

	prev := st.LastCase
	var events []Event

	if differs(c["name"], prev["name"]) {
		events = append(events, Event{
			"ts":      nowStr,
			"event":   CaseChange,
			"prev":    prev["name"],
			"current": c["name"],
		})
	}

	if differs(c["status"], prev["status"]) {
		events = append(events, Event{
			"ts":      nowStr,
			"event":   StatusChange,
			"prev":    prev["status"],
			"current": c["status"],
		})
	}

	if differs(c["period"], prev["period"]) {
		events = append(events, Event{
			"ts":                        nowStr,
			"event":                     PeriodChange,
			"prev":                      prev["period"],
			"current":                   c["period"],
			"seconds_since_last_period": elapsed(nowTS, st.LastPeriodTS),
		})
		st.LastPeriodTS = &nowTS
	}

	if differs(c["tick"], prev["tick"]) {
		events = append(events, Event{
			"ts":                      nowStr,
			"event":                   TickChange,
			"prev":                    prev["tick"],
			"current":                 c["tick"],
			"seconds_since_last_tick": elapsed(nowTS, st.LastTickTS),
		})
		st.LastTickTS = &nowTS
	}

	st.LastCase = c
	return events
}

// elapsed returns now - anchor in seconds, or an explicit null when no
// anchor exists yet.
func elapsed(now float64, anchor *float64) any {
	if anchor == nil {
		return nil
	}
	return now - *anchor
}

// differs compares two decoded JSON values. Scalars compare directly;
// anything else falls back to fingerprint comparison so a malformed case
// payload cannot panic the detector.
func differs(a, b any) bool {
	if isScalar(a) && isScalar(b) {
		return a != b
	}
	return state.Fingerprint(a) != state.Fingerprint(b)
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, float64, bool:
		return true
	}
	return false
}
