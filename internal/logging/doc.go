// Package logging provides logging utilities for forage-ports.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("reclaimed lease", logging.Range(base, size))
//	logging.Warn("probe failed", "port", port, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("No leases found")
//	logging.UserSuccess("Released lease at %d", base)
//	logging.UserWarning("Port %d is already in use", port)
//	logging.UserError("Failed to allocate: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
