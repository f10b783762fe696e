package state

import "time"

// Reclaim returns a copy of s without the allocations that have expired at
// now, together with the removed records in base order. s is not modified.
func Reclaim(s *State, now time.Time) (*State, []Allocation) {
	out := &State{
		NextHint:    s.NextHint,
		Allocations: make(map[int]Allocation, len(s.Allocations)),
	}

	var removed []Allocation
	for _, a := range s.Sorted() {
		if a.Expired(now) {
			removed = append(removed, a)
			continue
		}
		out.Allocations[a.Base] = a
	}

	return out, removed
}
