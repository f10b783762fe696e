package state

import (
	"fmt"
	"sort"
	"time"
)

// maxPort is the exclusive upper limit of the port number space.
const maxPort = 65536

// Allocation is one leased port range [Base, Base+Size).
type Allocation struct {
	Base      int    `json:"-"`
	Size      int    `json:"size"`
	ExpiresAt int64  `json:"expires_at"`
	Label     string `json:"label,omitempty"`
}

// End returns the exclusive end of the range.
func (a Allocation) End() int {
	return a.Base + a.Size
}

// Overlaps reports whether a intersects [base, base+size).
func (a Allocation) Overlaps(base, size int) bool {
	return a.Base < base+size && base < a.End()
}

// Expiry returns ExpiresAt as a time.
func (a Allocation) Expiry() time.Time {
	return time.Unix(a.ExpiresAt, 0)
}

// Expired reports whether the lease has lapsed at now.
func (a Allocation) Expired(now time.Time) bool {
	return a.ExpiresAt <= now.Unix()
}

// Ports returns every port in the range.
func (a Allocation) Ports() []int {
	ports := make([]int, a.Size)
	for i := range ports {
		ports[i] = a.Base + i
	}
	return ports
}

// State is the root of the persisted bookkeeping.
type State struct {
	NextHint    int                `json:"next_hint"`
	Allocations map[int]Allocation `json:"allocations"`
}

// New returns an empty state.
func New() *State {
	return &State{Allocations: make(map[int]Allocation)}
}

// Sorted returns the allocations ordered by base port.
func (s *State) Sorted() []Allocation {
	out := make([]Allocation, 0, len(s.Allocations))
	for _, a := range s.Allocations {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base < out[j].Base })
	return out
}

// Conflict returns the lowest-based allocation intersecting
// [base, base+size), if any.
func (s *State) Conflict(base, size int) (Allocation, bool) {
	var (
		found Allocation
		ok    bool
	)
	for _, a := range s.Allocations {
		if a.Overlaps(base, size) && (!ok || a.Base < found.Base) {
			found, ok = a, true
		}
	}
	return found, ok
}

// Insert adds a record. It fails if the range overlaps an existing one.
func (s *State) Insert(a Allocation) error {
	if c, ok := s.Conflict(a.Base, a.Size); ok {
		return fmt.Errorf("range [%d, %d) overlaps lease [%d, %d)", a.Base, a.End(), c.Base, c.End())
	}
	s.Allocations[a.Base] = a
	return nil
}

// validate checks the structural invariants of a decoded state.
func (s *State) validate() error {
	if s.NextHint < 0 || s.NextHint > maxPort {
		return fmt.Errorf("next_hint %d out of range", s.NextHint)
	}

	sorted := s.Sorted()
	for i, a := range sorted {
		if a.Size <= 0 {
			return fmt.Errorf("allocation at %d has non-positive size %d", a.Base, a.Size)
		}
		if a.Base < 1 || a.End() > maxPort {
			return fmt.Errorf("allocation [%d, %d) outside port space", a.Base, a.End())
		}
		if i > 0 && sorted[i-1].End() > a.Base {
			prev := sorted[i-1]
			return fmt.Errorf("allocation [%d, %d) overlaps [%d, %d)", prev.Base, prev.End(), a.Base, a.End())
		}
	}
	return nil
}
