// Package status serves a read-only HTTP view of the allocator.
//
// Routes:
//
//	GET /health   liveness, always {"status":"ok"}
//	GET /status   window, default lease, uptime and the live leases
//
// The status handler takes the allocator lock for each request, so it
// never observes a half-applied update. It never writes the state file.
package status
