// Package app provides the application context for forage-ports.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Config   *config.Config          // Allocator settings, loaded lazily
//	    Executor system.CommandExecutor  // Runs workloads for "exec"
//	    Prober   probe.Prober            // Bind probe, nil for the real one
//	    Clock    allocator.Clock         // Time source, nil for time.Now
//	}
//
// # Creating an App
//
// Use New with functional options:
//
//	// Production usage
//	a := app.New()
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithConfig(testConfig),
//	    app.WithExecutor(system.NewMockExecutor()),
//	    app.WithProber(fakeProber),
//	)
//
// Commands build an allocator from the context with Allocator.
package app
