package enrich

import (
	"testing"

	"github.com/rickgao/rit-data/internal/state"
)

func sec(ticker string, last, bid, ask float64) map[string]any {
	return map[string]any{"ticker": ticker, "last": last, "bid": bid, "ask": ask}
}

func TestMid(t *testing.T) {
	t.Run("both sides present", func(t *testing.T) {
		st := state.New()
		out := Securities([]map[string]any{sec("CRZY", 11, 10, 12)}, st)
		if got := out[0]["mid"]; got != 11.0 {
			t.Errorf("mid = %v, want 11.0", got)
		}
	})

	t.Run("missing bid", func(t *testing.T) {
		st := state.New()
		out := Securities([]map[string]any{{"ticker": "CRZY", "last": 11.0, "ask": 12.0}}, st)
		if got := out[0]["mid"]; got != nil {
			t.Errorf("mid = %v, want nil", got)
		}
	})

	t.Run("missing ask", func(t *testing.T) {
		st := state.New()
		out := Securities([]map[string]any{{"ticker": "CRZY", "last": 11.0, "bid": 10.0}}, st)
		if got := out[0]["mid"]; got != nil {
			t.Errorf("mid = %v, want nil", got)
		}
	})
}

func TestDeltasAgainstPreviousPoll(t *testing.T) {
	st := state.New()

	Securities([]map[string]any{sec("CRZY", 100, 99, 101)}, st)
	out := Securities([]map[string]any{sec("CRZY", 110, 109, 111)}, st)

	if got := out[0]["delta_last"]; got != 10.0 {
		t.Errorf("delta_last = %v, want 10.0", got)
	}
	if got := out[0]["pct_last"]; got != 10.0 {
		t.Errorf("pct_last = %v, want 10.0", got)
	}
	if got := out[0]["delta_mid"]; got != 10.0 {
		t.Errorf("delta_mid = %v, want 10.0", got)
	}
}

func TestFirstPollHasNullDeltas(t *testing.T) {
	st := state.New()
	out := Securities([]map[string]any{sec("CRZY", 100, 99, 101)}, st)

	for _, key := range []string{"delta_last", "pct_last", "delta_mid", "pct_mid"} {
		if got := out[0][key]; got != nil {
			t.Errorf("%s = %v on first poll, want nil", key, got)
		}
	}
	// delta_from_start compares against the just-pinned first price.
	if got := out[0]["delta_from_start"]; got != 0.0 {
		t.Errorf("delta_from_start = %v, want 0.0", got)
	}
}

func TestPctAgainstZeroPreviousIsNull(t *testing.T) {
	st := state.New()

	Securities([]map[string]any{sec("PENNY", 0, 0, 0)}, st)
	out := Securities([]map[string]any{sec("PENNY", 5, 4, 6)}, st)

	if got := out[0]["pct_last"]; got != nil {
		t.Errorf("pct_last = %v, want nil when previous last is 0", got)
	}
	if got := out[0]["delta_last"]; got != 5.0 {
		t.Errorf("delta_last = %v, want 5.0", got)
	}
}

func TestFirstPriceWriteOnce(t *testing.T) {
	st := state.New()

	Securities([]map[string]any{sec("CRZY", 100, 99, 101)}, st)
	out := Securities([]map[string]any{sec("CRZY", 120, 119, 121)}, st)

	if st.FirstPrices["CRZY"] != 100 {
		t.Errorf("FirstPrices[CRZY] = %v, want 100 (write-once)", st.FirstPrices["CRZY"])
	}
	if got := out[0]["delta_from_start"]; got != 20.0 {
		t.Errorf("delta_from_start = %v, want 20.0", got)
	}
	if got := out[0]["pct_from_start"]; got != 20.0 {
		t.Errorf("pct_from_start = %v, want 20.0", got)
	}
}

func TestFirstPriceNotPinnedWithoutLast(t *testing.T) {
	st := state.New()

	Securities([]map[string]any{{"ticker": "CRZY", "bid": 10.0, "ask": 12.0}}, st)
	if _, ok := st.FirstPrices["CRZY"]; ok {
		t.Error("first price should not be pinned when last is absent")
	}

	// The first usable last pins the reference, even on a later cycle.
	Securities([]map[string]any{sec("CRZY", 50, 49, 51)}, st)
	if st.FirstPrices["CRZY"] != 50 {
		t.Errorf("FirstPrices[CRZY] = %v, want 50", st.FirstPrices["CRZY"])
	}
}

func TestInputFieldsPreserved(t *testing.T) {
	st := state.New()
	in := sec("CRZY", 100, 99, 101)
	in["type"] = "STOCK"
	in["position"] = 250.0

	out := Securities([]map[string]any{in}, st)

	if out[0]["type"] != "STOCK" || out[0]["position"] != 250.0 {
		t.Errorf("input fields not preserved: %v", out[0])
	}
	if _, ok := in["delta_last"]; ok {
		t.Error("input map should not be mutated")
	}
}

func TestTickerlessSecurityLeavesStateUntouched(t *testing.T) {
	st := state.New()
	out := Securities([]map[string]any{{"last": 5.0, "bid": 4.0, "ask": 6.0}}, st)

	if len(st.LastPrices) != 0 || len(st.FirstPrices) != 0 {
		t.Errorf("state mutated by tickerless security: %v %v", st.LastPrices, st.FirstPrices)
	}
	if got := out[0]["mid"]; got != 5.0 {
		t.Errorf("mid = %v, want 5.0", got)
	}
}
