// Package errors provides typed errors with exit codes for forage-ports.
//
// # Error Types
//
// ForageError is the base error type that wraps an error with an exit code:
//
//	type ForageError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess              = 0 // Success
//	ExitGeneralError         = 1 // General/unknown errors
//	ExitInvalidArgument      = 2 // Bad request (e.g. range size 0)
//	ExitStorage              = 3 // Lock or state file I/O failed
//	ExitCorruptState         = 4 // State file present but unparsable
//	ExitExhausted            = 5 // No free range within the bounded search
//	ExitVerificationTimeout  = 6 // A bind probe exceeded its deadline
//	ExitConfigError          = 7 // Configuration error
//	ExitNotFound             = 8 // No lease at the given base port
//
// # Matching
//
// Every code has a sentinel that matches any ForageError carrying the same
// code, so callers can branch without type assertions:
//
//	if errors.Is(err, errors.ErrExhausted) {
//	    // give up on this attempt
//	}
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
