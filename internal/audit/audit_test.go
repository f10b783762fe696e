package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

var t0 = time.Unix(1_760_000_000, 0).UTC()

func TestLogger_LogAndEvents(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir, nil)

	events := []Event{
		{Timestamp: t0, Type: EventAllocate, Base: 10000, Size: 3, Label: "ci-42"},
		{Timestamp: t0.Add(time.Second), Type: EventRenew, Base: 10000, Size: 3, Details: "lease=2h0m0s"},
		{Timestamp: t0.Add(2 * time.Second), Type: EventAllocate, Base: 10003, Size: 1},
		{Timestamp: t0.Add(3 * time.Second), Type: EventRelease, Base: 10000, Size: 3, Label: "ci-42"},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := logger.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.Base != events[i].Base {
			t.Errorf("event %d: base = %d, want %d", i, e.Base, events[i].Base)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
		if !e.Timestamp.Equal(events[i].Timestamp) {
			t.Errorf("event %d: timestamp = %v, want %v", i, e.Timestamp, events[i].Timestamp)
		}
	}
}

func TestLogger_EventsFor(t *testing.T) {
	logger := NewLogger(t.TempDir(), nil)

	_ = logger.LogLease(EventAllocate, state.Allocation{Base: 10000, Size: 2}, "")
	_ = logger.LogLease(EventAllocate, state.Allocation{Base: 10002, Size: 1}, "")
	_ = logger.LogLease(EventRelease, state.Allocation{Base: 10000, Size: 2}, "")

	result, err := logger.EventsFor(10000)
	if err != nil {
		t.Fatalf("EventsFor failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("got %d events, want 2", len(result))
	}
	if result[0].Type != EventAllocate || result[1].Type != EventRelease {
		t.Errorf("types = %q, %q", result[0].Type, result[1].Type)
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	logger := NewLogger(t.TempDir(), nil)

	result, err := logger.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_DefaultTimestamp(t *testing.T) {
	logger := NewLogger(t.TempDir(), func() time.Time { return t0 })

	if err := logger.LogLease(EventReclaim, state.Allocation{Base: 10000, Size: 1, Label: "old"}, ""); err != nil {
		t.Fatalf("LogLease failed: %v", err)
	}

	result, err := logger.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("got %d events, want 1", len(result))
	}
	if !result[0].Timestamp.Equal(t0) {
		t.Errorf("timestamp = %v, want %v", result[0].Timestamp, t0)
	}
	if result[0].Label != "old" {
		t.Errorf("label = %q, want %q", result[0].Label, "old")
	}
}

func TestLogger_LogLeases(t *testing.T) {
	logger := NewLogger(t.TempDir(), nil)

	leases := []state.Allocation{
		{Base: 10000, Size: 1},
		{Base: 10005, Size: 2},
	}
	if err := logger.LogLeases(EventReclaim, leases, "expired"); err != nil {
		t.Fatalf("LogLeases failed: %v", err)
	}

	result, _ := logger.Events()
	if len(result) != 2 {
		t.Fatalf("got %d events, want 2", len(result))
	}
	for i, e := range result {
		if e.Type != EventReclaim || e.Base != leases[i].Base || e.Details != "expired" {
			t.Errorf("event %d = %+v", i, e)
		}
	}
}

func TestLogger_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir, nil)

	content := `{"timestamp":"2025-10-09T08:53:20Z","type":"allocate","base":10000,"size":1}
not valid json

{"timestamp":"2025-10-09T08:53:21Z","type":"release","base":10000,"size":1}
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := logger.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 2 {
		t.Errorf("got %d events, want 2 (malformed line should be skipped)", len(result))
	}
}

func TestLogger_Clear(t *testing.T) {
	logger := NewLogger(t.TempDir(), nil)

	_ = logger.LogLease(EventAllocate, state.Allocation{Base: 10000, Size: 1}, "")

	if err := logger.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	result, _ := logger.Events()
	if len(result) != 0 {
		t.Errorf("got %d events after clear, want 0", len(result))
	}

	if err := logger.Clear(); err != nil {
		t.Errorf("Clear of missing log should succeed: %v", err)
	}
}

func TestLogger_MissingDirectory(t *testing.T) {
	logger := NewLogger(filepath.Join(t.TempDir(), "missing"), nil)

	err := logger.LogLease(EventAllocate, state.Allocation{Base: 10000, Size: 1}, "")
	if !errors.Is(err, errors.ErrStorage) {
		t.Errorf("error = %v, want storage error", err)
	}
}
