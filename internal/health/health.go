package health

import (
	"context"
	"fmt"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/probe"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// Status represents the health status of a lease
type Status string

const (
	StatusServing Status = "serving"
	StatusPartial Status = "partial"
	StatusIdle    Status = "idle"
	StatusExpired Status = "expired"
)

// CheckResult contains the results of health checks
type CheckResult struct {
	Lease     state.Allocation `json:"-"`
	Status    Status           `json:"status"`
	Bound     []int            `json:"bound"`
	Remaining string           `json:"remaining"`
}

// BoundPorts returns the ports of a that are currently bound by some
// process, in order.
func BoundPorts(ctx context.Context, p probe.Prober, a state.Allocation) ([]int, error) {
	bound := []int{}
	for _, port := range a.Ports() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		free, err := p.Probe(ctx, port)
		if err != nil {
			return nil, err
		}
		if !free {
			bound = append(bound, port)
		}
	}
	return bound, nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// Check performs all health checks for a lease.
// An expired lease is not probed.
func Check(ctx context.Context, p probe.Prober, a state.Allocation, now time.Time) (*CheckResult, error) {
	result := &CheckResult{Lease: a, Bound: []int{}}

	if a.Expired(now) {
		result.Status = StatusExpired
		result.Remaining = "0s"
		return result, nil
	}
	result.Remaining = formatDuration(a.Expiry().Sub(now))

	bound, err := BoundPorts(ctx, p, a)
	if err != nil {
		return nil, err
	}
	result.Bound = bound
	result.Status = summarize(len(bound), a.Size)

	return result, nil
}

// CheckAll checks every lease in order, stopping at the first probe error.
func CheckAll(ctx context.Context, p probe.Prober, leases []state.Allocation, now time.Time) ([]*CheckResult, error) {
	results := make([]*CheckResult, 0, len(leases))
	for _, a := range leases {
		r, err := Check(ctx, p, a, now)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func summarize(bound, size int) Status {
	switch {
	case bound == 0:
		return StatusIdle
	case bound == size:
		return StatusServing
	default:
		return StatusPartial
	}
}
