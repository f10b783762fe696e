// Package state provides the persisted allocation bookkeeping for
// forage-ports.
//
// The state file is the single source of truth shared by every caller on
// the host. It is re-read on every operation and never cached:
//
//	{
//	  "next_hint": 10007,
//	  "allocations": {
//	    "10000": {"size": 3, "expires_at": 1760000120, "label": "ci-42"}
//	  }
//	}
//
// # Reading
//
// A missing file reads as an empty State. A file that exists but cannot be
// decoded, or whose records break the invariants (non-positive size, ports
// outside 1..65535, overlapping ranges), is reported as corrupt. It is
// never reset silently.
//
// # Writing
//
// Writes go to a temporary file that is renamed into place, so concurrent
// readers see either the old or the new state and never a partial one.
//
// # Reclamation
//
// Reclaim is a pure function that drops every record whose expiry is at or
// before the given instant.
//
// Callers must hold the lock from package lock around Read/Write pairs.
package state
