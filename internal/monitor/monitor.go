// Package monitor provides background reclamation of expired leases.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// Reclaimer removes expired leases and reports what it removed.
type Reclaimer interface {
	Reclaim(ctx context.Context) ([]state.Allocation, error)
}

// SweepResult holds the result of a single sweep.
type SweepResult struct {
	Reclaimed []state.Allocation
	Err       error
}

// Stats summarizes the sweeps run so far.
type Stats struct {
	Sweeps    int
	Failures  int
	Reclaimed int
	LastSweep time.Time
}

// Monitor periodically reclaims expired leases so they do not linger in the
// state file between allocations.
type Monitor struct {
	interval  time.Duration
	reclaimer Reclaimer
	auditLog  *audit.Logger
	now       func() time.Time

	mu    sync.Mutex
	stats Stats
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAuditLogger sets the audit logger for recording reclaim events.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithClock sets the time source used for Stats.LastSweep.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a new Monitor.
func New(interval time.Duration, r Reclaimer, opts ...Option) *Monitor {
	m := &Monitor{
		interval:  interval,
		reclaimer: r,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the reclaim loop. It blocks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return errors.InvalidArgument("reclaim interval must be positive (got %s)", m.interval)
	}

	logging.Debug("starting lease monitor", "interval", m.interval)

	// Run an immediate sweep, then loop on interval.
	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("lease monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// Stats returns a snapshot of the sweep counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// sweep reclaims expired leases once. Failures are logged and counted; the
// next tick retries.
func (m *Monitor) sweep(ctx context.Context) SweepResult {
	removed, err := m.reclaimer.Reclaim(ctx)

	m.mu.Lock()
	m.stats.Sweeps++
	m.stats.LastSweep = m.now()
	if err != nil {
		m.stats.Failures++
	}
	m.stats.Reclaimed += len(removed)
	m.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			logging.Warn("lease monitor failed to reclaim", "error", err)
		}
		return SweepResult{Err: err}
	}

	if len(removed) > 0 {
		logging.Info("reclaimed expired leases", "count", len(removed))
		if m.auditLog != nil {
			if err := m.auditLog.LogLeases(audit.EventReclaim, removed, fmt.Sprintf("monitor interval=%s", m.interval)); err != nil {
				logging.Warn("failed to record reclaim events", "error", err)
			}
		}
	}

	return SweepResult{Reclaimed: removed}
}
