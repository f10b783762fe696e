// Package audit provides structured event logging for lease lifecycle events.
// Events are stored as a single JSON Lines (JSONL) file in the state directory.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// FileName is the event log file name inside the state directory.
const FileName = "events.jsonl"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventType classifies a lifecycle event.
type EventType string

const (
	EventAllocate EventType = "allocate"
	EventRelease  EventType = "release"
	EventRenew    EventType = "renew"
	EventReclaim  EventType = "reclaim"
	EventExec     EventType = "exec"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Base      int       `json:"base"`
	Size      int       `json:"size,omitempty"`
	Label     string    `json:"label,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads lease events.
// Events are stored in {stateDir}/events.jsonl.
type Logger struct {
	path string
	now  func() time.Time
}

// NewLogger creates a new audit logger rooted at stateDir. A nil now uses
// time.Now.
func NewLogger(stateDir string, now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{path: filepath.Join(stateDir, FileName), now: now}
}

// Path returns the event log path.
func (l *Logger) Path() string {
	return l.path
}

// Log appends an event to the log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	event.Timestamp = event.Timestamp.UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.StorageError("failed to open audit log", err)
	}
	defer f.Close()

	// One write per line so concurrent appenders do not interleave.
	if _, err := f.Write(append(data, '\n')); err != nil {
		return errors.StorageError("failed to write event", err)
	}

	return nil
}

// LogLease is a convenience method that logs an event for one lease.
func (l *Logger) LogLease(eventType EventType, a state.Allocation, details string) error {
	return l.Log(Event{
		Type:    eventType,
		Base:    a.Base,
		Size:    a.Size,
		Label:   a.Label,
		Details: details,
	})
}

// LogLeases logs one event per lease, stopping at the first failure.
func (l *Logger) LogLeases(eventType EventType, leases []state.Allocation, details string) error {
	for _, a := range leases {
		if err := l.LogLease(eventType, a, details); err != nil {
			return err
		}
	}
	return nil
}

// Events reads all events in chronological order.
func (l *Logger) Events() ([]Event, error) {
	return l.read(func(Event) bool { return true })
}

// EventsFor reads the events recorded for the range starting at base.
func (l *Logger) EventsFor(base int) ([]Event, error) {
	return l.read(func(e Event) bool { return e.Base == base })
}

func (l *Logger) read(keep func(Event) bool) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageError("failed to open audit log", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		if keep(event) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return events, errors.StorageError("error reading audit log", err)
	}

	return events, nil
}

// Clear deletes the event log.
func (l *Logger) Clear() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.StorageError("failed to remove audit log", err)
	}
	return nil
}
