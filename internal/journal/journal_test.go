package journal

import (
	"testing"
	"time"

	"flipfield.gg/internal/pipeline"
)

func TestWriteScan_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	outs := []pipeline.Outcome{
		{Time: at, Coords: []pipeline.Coord{{X: 1, Y: 2}}, OK: true, Ref: "0xabc", ElapsedMs: 120},
		{Time: at.Add(time.Second), Coords: []pipeline.Coord{{X: 3, Y: 4}, {X: 5, Y: 6}}, OK: false, Err: "flip rejected: E_RATE_LIMIT", ElapsedMs: 80},
	}
	for _, o := range outs {
		if err := w.WriteOutcome(o); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []pipeline.Outcome
	if err := Scan(dir, func(o pipeline.Outcome) error {
		got = append(got, o)
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("scanned %d records", len(got))
	}
	if !got[0].OK || got[0].Ref != "0xabc" || len(got[0].Coords) != 1 {
		t.Fatalf("record 0 = %+v", got[0])
	}
	if got[1].OK || got[1].Err == "" || len(got[1].Coords) != 2 {
		t.Fatalf("record 1 = %+v", got[1])
	}
	if !got[0].Time.Equal(at) {
		t.Fatalf("timestamp drifted: %v", got[0].Time)
	}
}

func TestScan_EmptyDir(t *testing.T) {
	calls := 0
	if err := Scan(t.TempDir(), func(pipeline.Outcome) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if calls != 0 {
		t.Fatalf("callback ran %d times on empty dir", calls)
	}
}
