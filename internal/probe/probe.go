// Package probe checks that ports are actually free on the host.
//
// The allocator's bookkeeping only knows about its own leases. A bind
// probe catches ports held by unrelated processes: it opens a TCP listener
// and a UDP socket on the loopback address and closes both right away.
// A port is free only if both binds succeed.
package probe

import (
	"context"
	stderrors "errors"
	"net"
	"strconv"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
)

// errBindTimeout marks a probe that outlived NetProber.Timeout, as opposed
// to one whose caller's context ended.
var errBindTimeout = stderrors.New("bind probe timed out")

// Prober reports whether a port can currently be bound.
type Prober interface {
	// Probe returns true if port is free. A busy port is not an error.
	Probe(ctx context.Context, port int) (bool, error)
}

// NetProber probes with real sockets.
type NetProber struct {
	Host    string
	Timeout time.Duration
}

// NewNetProber returns a prober bound to host with a per-port timeout.
func NewNetProber(host string, timeout time.Duration) *NetProber {
	return &NetProber{Host: host, Timeout: timeout}
}

// Probe binds TCP then UDP on port. Every socket it opens is closed before
// it returns.
func (p *NetProber) Probe(ctx context.Context, port int) (bool, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, p.Timeout, errBindTimeout)
	defer cancel()

	addr := net.JoinHostPort(p.Host, strconv.Itoa(port))
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return false, p.classify(ctx, port, err)
	}
	if err := ln.Close(); err != nil {
		return false, errors.StorageError("failed to close tcp probe", err)
	}

	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return false, p.classify(ctx, port, err)
	}
	if err := pc.Close(); err != nil {
		return false, errors.StorageError("failed to close udp probe", err)
	}

	if err := p.classify(ctx, port, nil); err != nil {
		return false, err
	}

	return true, nil
}

// classify turns a bind failure into "busy" (nil) unless the probe ran out
// of time or the caller gave up. Only the prober's own timeout is a
// verification timeout; the caller's deadline or cancellation is returned
// as the caller's context error.
func (p *NetProber) classify(ctx context.Context, port int, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return nil
	}
	if context.Cause(ctx) == errBindTimeout {
		if err == nil {
			err = ctxErr
		}
		return errors.VerificationTimeout(port, err)
	}
	return ctxErr
}

// Range probes [base, base+size) in order and returns the offset of the
// first busy port, or -1 if every port is free.
func Range(ctx context.Context, p Prober, base, size int) (int, error) {
	for off := 0; off < size; off++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		free, err := p.Probe(ctx, base+off)
		if err != nil {
			return 0, err
		}
		if !free {
			return off, nil
		}
	}
	return -1, nil
}

// Func adapts a function to the Prober interface.
type Func func(ctx context.Context, port int) (bool, error)

// Probe calls f.
func (f Func) Probe(ctx context.Context, port int) (bool, error) {
	return f(ctx, port)
}
