package allocator

import (
	"log/slog"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/probe"
)

// Clock returns the current time.
type Clock func() time.Time

// Option configures an Allocator
type Option func(*Allocator)

// WithProber replaces the socket prober
func WithProber(p probe.Prober) Option {
	return func(a *Allocator) {
		a.prober = p
	}
}

// WithClock replaces the time source
func WithClock(c Clock) Option {
	return func(a *Allocator) {
		a.clock = c
	}
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = l
	}
}

// Request describes one allocation.
type Request struct {
	// Size is the number of consecutive ports. Must be positive.
	Size int

	// Label is free text stored with the lease (a job name, say).
	Label string

	// Lease overrides the configured lease duration when positive.
	Lease time.Duration
}
