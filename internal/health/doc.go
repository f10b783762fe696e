// Package health reports whether leased ports are in use.
//
// A lease only says who may use a range. Health checks probe each port of a
// live lease to see whether the workload actually bound it.
//
// # Health Status
//
// Lease health is represented by Status:
//
//	StatusServing - Every port in the range is bound
//	StatusPartial - Some ports are bound
//	StatusIdle    - No port is bound
//	StatusExpired - The lease has lapsed; nothing is probed
//
// # Check Functions
//
//	bound, err := health.BoundPorts(ctx, prober, lease)
//
//	result, err := health.Check(ctx, prober, lease, now)
//	// result.Status, .Bound, .Remaining
//
//	results, err := health.CheckAll(ctx, prober, leases, now)
package health
