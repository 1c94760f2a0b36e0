package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if st.LastNewsID != nil {
		t.Errorf("LastNewsID = %v, want nil", *st.LastNewsID)
	}
	if st.LastCase != nil {
		t.Errorf("LastCase = %v, want nil", st.LastCase)
	}
	if st.LastPrices == nil || st.FirstPrices == nil || st.LastTenders == nil || st.LastLeases == nil {
		t.Error("maps should be initialized on empty state")
	}
	if st.DisabledEndpoints == nil {
		t.Error("DisabledEndpoints should be initialized")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	st := New()
	newsID := int64(42)
	last := 10.5
	mid := 10.25
	tick := 1700000000.25
	st.LastNewsID = &newsID
	st.LastPrices["CRZY"] = Prices{Last: &last, Mid: &mid}
	st.FirstPrices["CRZY"] = 9.75
	st.LastCase = map[string]any{"name": "Liability Trading", "status": "ACTIVE", "period": 1.0, "tick": 37.0}
	st.LastTickTS = &tick
	st.LastTenders["17"] = `{"price":10.1}`
	st.DisabledEndpoints.Add(EndpointLeases)

	if err := st.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.LastNewsID == nil || *got.LastNewsID != 42 {
		t.Errorf("LastNewsID = %v, want 42", got.LastNewsID)
	}
	prices := got.LastPrices["CRZY"]
	if prices.Last == nil || *prices.Last != 10.5 {
		t.Errorf("LastPrices[CRZY].Last = %v, want 10.5", prices.Last)
	}
	if prices.Mid == nil || *prices.Mid != 10.25 {
		t.Errorf("LastPrices[CRZY].Mid = %v, want 10.25", prices.Mid)
	}
	if got.FirstPrices["CRZY"] != 9.75 {
		t.Errorf("FirstPrices[CRZY] = %v, want 9.75", got.FirstPrices["CRZY"])
	}
	if got.LastCase["name"] != "Liability Trading" {
		t.Errorf("LastCase.name = %v, want Liability Trading", got.LastCase["name"])
	}
	if got.LastTickTS == nil || *got.LastTickTS != tick {
		t.Errorf("LastTickTS = %v, want %v", got.LastTickTS, tick)
	}
	if got.LastTenders["17"] != st.LastTenders["17"] {
		t.Errorf("LastTenders[17] = %q, want %q", got.LastTenders["17"], st.LastTenders["17"])
	}
	if !got.DisabledEndpoints.Has(EndpointLeases) {
		t.Error("DisabledEndpoints should contain leases after reload")
	}
	if got.DisabledEndpoints.Has(EndpointTenders) {
		t.Error("DisabledEndpoints should not contain tenders")
	}
}

func TestSaveOverwritesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	st := New()
	st.FirstPrices["AAA"] = 1
	st.FirstPrices["BBB"] = 2
	if err := st.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Second save with less content must fully replace the document.
	st2 := New()
	st2.FirstPrices["CCC"] = 3
	if err := st2.Save(path); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.FirstPrices) != 1 || got.FirstPrices["CCC"] != 3 {
		t.Errorf("FirstPrices = %v, want only CCC=3", got.FirstPrices)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after Save")
	}
}

func TestDisabledEndpointsSortedOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	st := New()
	st.DisabledEndpoints.Add(EndpointTenders)
	st.DisabledEndpoints.Add(EndpointLeases)
	if err := st.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read checkpoint: %v", err)
	}
	if !strings.Contains(string(data), `"leases"`) {
		t.Fatal("checkpoint missing leases entry")
	}
	if strings.Index(string(data), `"leases"`) > strings.Index(string(data), `"tenders"`) {
		t.Error("disabled_endpoints should be sorted alphabetically")
	}
}

func TestFingerprintOrderIndependent(t *testing.T) {
	// Two decodings of the same object with different source ordering.
	var a, b any
	if err := json.Unmarshal([]byte(`{"tender_id":5,"price":10.5,"caption":"Buy 10k"}`), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"caption":"Buy 10k","price":10.5,"tender_id":5}`), &b); err != nil {
		t.Fatal(err)
	}

	if Fingerprint(a) != Fingerprint(b) {
		t.Errorf("fingerprints differ for identical content:\n%s\n%s", Fingerprint(a), Fingerprint(b))
	}
}

func TestFingerprintDetectsChange(t *testing.T) {
	a := map[string]any{"tender_id": 5.0, "price": 10.5}
	b := map[string]any{"tender_id": 5.0, "price": 10.6}

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("fingerprints should differ when any field changes")
	}
}

func TestMarshalASCII(t *testing.T) {
	t.Run("ascii passthrough", func(t *testing.T) {
		data, err := MarshalASCII(map[string]any{"ticker": "CRZY"})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `{"ticker":"CRZY"}` {
			t.Errorf("got %s", data)
		}
	})

	t.Run("non-ascii escaped", func(t *testing.T) {
		data, err := MarshalASCII(map[string]any{"name": "Café"})
		if err != nil {
			t.Fatal(err)
		}
		got := string(data)
		if strings.ContainsFunc(got, func(r rune) bool { return r > 0x7e }) {
			t.Errorf("output contains non-ASCII: %s", got)
		}
		if !strings.Contains(got, `\u00e9`) {
			t.Errorf("expected \\u00e9 escape, got %s", got)
		}

		var back map[string]string
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("escaped output is not valid JSON: %v", err)
		}
		if back["name"] != "Café" {
			t.Errorf("round-trip = %q, want Café", back["name"])
		}
	})

	t.Run("astral plane", func(t *testing.T) {
		data, err := MarshalASCII(map[string]any{"emoji": "\U0001F4C8"})
		if err != nil {
			t.Fatal(err)
		}

		var back map[string]string
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("escaped output is not valid JSON: %v", err)
		}
		if back["emoji"] != "\U0001F4C8" {
			t.Errorf("round-trip = %q", back["emoji"])
		}
	})
}
