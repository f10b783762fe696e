package allocator

import (
	"context"
	"log/slog"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/lock"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/probe"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// Allocator leases port ranges from the window [Low, High).
// It holds no state between calls and is safe for concurrent use.
type Allocator struct {
	low, high int
	lease     time.Duration

	store    *state.Store
	lockPath string

	prober probe.Prober
	clock  Clock
	logger *slog.Logger
}

// New creates an Allocator from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	statePath, err := cfg.StatePath()
	if err != nil {
		return nil, err
	}
	lockPath, err := cfg.LockPath()
	if err != nil {
		return nil, err
	}

	a := &Allocator{
		low:      cfg.Low,
		high:     cfg.High,
		lease:    cfg.Lease,
		store:    state.NewStore(statePath),
		lockPath: lockPath,
		prober:   probe.NewNetProber(cfg.ProbeHost, cfg.ProbeTimeout),
		clock:    time.Now,
		logger:   logging.Discard(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Window returns the allocatable window [low, high).
func (a *Allocator) Window() (low, high int) {
	return a.low, a.high
}

// Lease returns the default lease duration.
func (a *Allocator) Lease() time.Duration {
	return a.lease
}

// Prober returns the prober used to verify candidate ranges.
func (a *Allocator) Prober() probe.Prober {
	return a.prober
}

// Allocate leases size consecutive ports and returns the first one.
func (a *Allocator) Allocate(ctx context.Context, size int) (int, error) {
	alloc, err := a.Reserve(ctx, Request{Size: size})
	if err != nil {
		return 0, err
	}
	return alloc.Base, nil
}

// Reserve leases a range described by req and returns the stored record.
func (a *Allocator) Reserve(ctx context.Context, req Request) (state.Allocation, error) {
	if req.Size <= 0 {
		return state.Allocation{}, errors.InvalidArgument("range size must be positive (got %d)", req.Size)
	}
	if req.Lease < 0 {
		return state.Allocation{}, errors.InvalidArgument("lease must not be negative (got %s)", req.Lease)
	}
	lease := req.Lease
	if lease == 0 {
		lease = a.lease
	}

	var alloc state.Allocation
	err := a.update(ctx, func(st *state.State) (*state.State, bool, error) {
		base, st, err := a.search(ctx, st, req.Size)
		if err != nil {
			return nil, false, err
		}

		alloc = state.Allocation{
			Base:      base,
			Size:      req.Size,
			ExpiresAt: a.clock().Add(lease).Unix(),
			Label:     req.Label,
		}
		if err := st.Insert(alloc); err != nil {
			// search only returns ranges clear of every record
			return nil, false, err
		}
		st.NextHint = alloc.End()

		a.logger.Debug("committed lease", logging.Range(alloc.Base, alloc.Size),
			"expires_at", alloc.Expiry(), "label", alloc.Label)
		return st, true, nil
	})
	if err != nil {
		return state.Allocation{}, err
	}

	return alloc, nil
}

// search finds a base for size ports that is clear of every lease and
// passes the bind probe. It may return a further-reclaimed state.
func (a *Allocator) search(ctx context.Context, st *state.State, size int) (int, *state.State, error) {
	candidate := st.NextHint
	if candidate < a.low || candidate > a.high {
		candidate = a.low
	}

	// The second pass stops where the first began, unless the wrap-time
	// reclaim freed ranges the first pass already walked past.
	stop := candidate
	wrapped := false
	maxAttempts := (a.high - a.low) + 2

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if wrapped && candidate >= stop {
			break
		}

		if candidate+size > a.high {
			if wrapped {
				break
			}
			var removed []state.Allocation
			st, removed = state.Reclaim(st, a.clock())
			a.logReclaimed(removed)
			if len(removed) > 0 {
				stop = a.high
			}
			a.logger.Debug("wrapping scan", "from", candidate, "to", a.low)
			wrapped = true
			candidate = a.low
			continue
		}

		if c, ok := st.Conflict(candidate, size); ok {
			candidate = c.End()
			continue
		}

		off, err := probe.Range(ctx, a.prober, candidate, size)
		if err != nil {
			return 0, nil, err
		}
		if off >= 0 {
			a.logger.Debug("port busy, skipping", "port", candidate+off)
			candidate += off + 1
			continue
		}

		return candidate, st, nil
	}

	return 0, nil, errors.Exhausted(size, a.low, a.high)
}

// Release drops the lease starting at base.
func (a *Allocator) Release(ctx context.Context, base int) error {
	return a.update(ctx, func(st *state.State) (*state.State, bool, error) {
		alloc, ok := st.Allocations[base]
		if !ok {
			return nil, false, errors.LeaseNotFound(base)
		}
		delete(st.Allocations, base)
		a.logger.Debug("released lease", logging.Range(alloc.Base, alloc.Size))
		return st, true, nil
	})
}

// Renew replaces the lease at base with one expiring lease from now. A
// non-positive lease uses the configured duration.
func (a *Allocator) Renew(ctx context.Context, base int, lease time.Duration) (state.Allocation, error) {
	if lease <= 0 {
		lease = a.lease
	}

	var renewed state.Allocation
	err := a.update(ctx, func(st *state.State) (*state.State, bool, error) {
		alloc, ok := st.Allocations[base]
		if !ok {
			return nil, false, errors.LeaseNotFound(base)
		}
		renewed = alloc
		renewed.ExpiresAt = a.clock().Add(lease).Unix()
		st.Allocations[base] = renewed
		a.logger.Debug("renewed lease", "base", base, "expires_at", renewed.Expiry())
		return st, true, nil
	})
	if err != nil {
		return state.Allocation{}, err
	}

	return renewed, nil
}

// List returns the live leases ordered by base port. Nothing is written.
func (a *Allocator) List(ctx context.Context) ([]state.Allocation, error) {
	var out []state.Allocation
	err := a.update(ctx, func(st *state.State) (*state.State, bool, error) {
		out = st.Sorted()
		return st, false, nil
	})
	return out, err
}

// Expired returns the leases a Reclaim would remove now. Nothing is
// written.
func (a *Allocator) Expired(ctx context.Context) ([]state.Allocation, error) {
	l, err := lock.Acquire(ctx, a.lockPath)
	if err != nil {
		return nil, err
	}
	defer l.Release()

	st, err := a.store.Read()
	if err != nil {
		return nil, err
	}

	_, removed := state.Reclaim(st, a.clock())
	return removed, nil
}

// Reclaim removes expired leases, persists the result and returns what was
// removed.
func (a *Allocator) Reclaim(ctx context.Context) ([]state.Allocation, error) {
	l, err := lock.Acquire(ctx, a.lockPath)
	if err != nil {
		return nil, err
	}
	defer l.Release()

	st, err := a.store.Read()
	if err != nil {
		return nil, err
	}

	st, removed := state.Reclaim(st, a.clock())
	if len(removed) == 0 {
		return nil, nil
	}
	a.logReclaimed(removed)

	if err := a.store.Write(st); err != nil {
		return nil, err
	}
	return removed, nil
}

// update runs fn on freshly loaded, reclaimed state under the lock. fn
// returns the state to keep and whether it must be written. Nothing is
// written when fn fails.
func (a *Allocator) update(ctx context.Context, fn func(*state.State) (*state.State, bool, error)) error {
	l, err := lock.Acquire(ctx, a.lockPath)
	if err != nil {
		return err
	}
	defer l.Release()

	st, err := a.store.Read()
	if err != nil {
		return err
	}

	st, removed := state.Reclaim(st, a.clock())
	a.logReclaimed(removed)

	st, write, err := fn(st)
	if err != nil {
		return err
	}
	if !write {
		return nil
	}

	return a.store.Write(st)
}

func (a *Allocator) logReclaimed(removed []state.Allocation) {
	for _, r := range removed {
		a.logger.Debug("reclaimed expired lease", logging.Range(r.Base, r.Size),
			"expired_at", r.Expiry(), "label", r.Label)
	}
}
