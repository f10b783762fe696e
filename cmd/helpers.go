package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/allocator"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// loadConfig loads the app configuration, applies the --dir flag on top and
// makes sure the state directory exists.
func loadConfig() (*config.Config, error) {
	cfg, err := app.Default.LoadConfig()
	if err != nil {
		return nil, err
	}

	if stateDir != "" {
		cfg.Dir = stateDir
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.StorageError("failed to create state directory "+cfg.Dir, err)
	}

	logging.Debug("using state directory", "dir", cfg.Dir)
	return cfg, nil
}

// newAllocator builds an allocator from the app context.
func newAllocator() (*allocator.Allocator, error) {
	if _, err := loadConfig(); err != nil {
		return nil, err
	}
	return app.Default.Allocator()
}

// parseBase parses a base port argument.
func parseBase(arg string) (int, error) {
	base, err := strconv.Atoi(arg)
	if err != nil || base < 1 {
		return 0, errors.InvalidArgument("invalid base port %q", arg)
	}
	return base, nil
}

// now returns the current time from the app clock, for display only.
func now() time.Time {
	if app.Default.Clock != nil {
		return app.Default.Clock()
	}
	return time.Now()
}

// recordEvents appends lease events to the event log. The operation has
// already succeeded, so failures are only logged.
func recordEvents(eventType audit.EventType, details string, leases ...state.Allocation) {
	events, err := app.Default.Events()
	if err == nil {
		err = events.LogLeases(eventType, leases, details)
	}
	if err != nil {
		logging.Warn("failed to record lease event", "type", eventType, "error", err)
	}
}
