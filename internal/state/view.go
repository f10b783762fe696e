package state

import "time"

// Lease is the presentation form of an Allocation, used for CLI output and
// the status endpoint. It is never persisted.
type Lease struct {
	Base      int       `json:"base" yaml:"base"`
	End       int       `json:"end" yaml:"end"`
	Size      int       `json:"size" yaml:"size"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
}

// View returns the presentation form of a.
func (a Allocation) View() Lease {
	return Lease{
		Base:      a.Base,
		End:       a.End(),
		Size:      a.Size,
		ExpiresAt: a.Expiry().UTC(),
		Label:     a.Label,
	}
}

// Views converts a slice of allocations, preserving order.
func Views(allocs []Allocation) []Lease {
	out := make([]Lease, len(allocs))
	for i, a := range allocs {
		out[i] = a.View()
	}
	return out
}
