// Package allocator hands out disjoint port ranges to independent
// processes on one host.
//
// There is no coordinating daemon. Every operation takes the exclusive
// file lock, re-reads the state file, drops expired leases, does its work
// and writes the state back before releasing the lock:
//
//	a, err := allocator.New(cfg)
//	if err != nil {
//	    return err
//	}
//	base, err := a.Allocate(ctx, 3) // ports base, base+1, base+2
//
// # Search
//
// The scan starts at the persisted hint and walks up the window
// [Low, High). A candidate that overlaps a known lease jumps to that
// lease's end without probing. Otherwise every port is bind-probed, and a
// busy port moves the candidate just past it. When the candidate no longer
// fits below High, expired leases are reclaimed again and the scan wraps
// to Low, once.
//
// The loop is capped at (High - Low) + 2 iterations. Each iteration
// either wraps or strictly advances the candidate, so the cap admits one
// full sweep and no more. The sweep also ends when a wrapped scan reaches
// the starting hint. Either way the result is ErrExhausted.
//
// # Leases
//
// Leases are bookkeeping only. Expiry frees the numeric range for reuse,
// not the caller's socket. A service that outlives its lease must Renew
// before expiry. A lapsed lease whose port is still bound is skipped by
// the bind probe, but only while it is bound at probe time.
package allocator
