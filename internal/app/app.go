package app

import (
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/allocator"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/probe"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/system"
)

// App holds the application dependencies
type App struct {
	// Config holds the allocator settings. Loaded on first use when nil.
	Config *config.Config

	// Executor runs child processes
	Executor system.CommandExecutor

	// Prober overrides the socket prober when set
	Prober probe.Prober

	// Clock overrides the time source when set
	Clock allocator.Clock
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets a custom configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithExecutor sets a custom command executor
func WithExecutor(e system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = e
	}
}

// WithProber sets a custom prober
func WithProber(p probe.Prober) Option {
	return func(a *App) {
		a.Prober = p
	}
}

// WithClock sets a custom clock
func WithClock(c allocator.Clock) Option {
	return func(a *App) {
		a.Clock = c
	}
}

// New creates a new App with the given options.
func New(opts ...Option) *App {
	app := &App{
		Executor: system.DefaultExecutor(),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// LoadConfig returns the configuration, loading it from the config file and
// environment the first time.
func (a *App) LoadConfig() (*config.Config, error) {
	if a.Config != nil {
		return a.Config, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Debug("loaded config", "dir", cfg.Dir, "low", cfg.Low, "high", cfg.High, "lease", cfg.Lease)

	a.Config = cfg
	return cfg, nil
}

// Allocator builds an allocator from the app's configuration and overrides.
func (a *App) Allocator() (*allocator.Allocator, error) {
	cfg, err := a.LoadConfig()
	if err != nil {
		return nil, err
	}

	opts := []allocator.Option{allocator.WithLogger(logging.Component("allocator"))}
	if a.Prober != nil {
		opts = append(opts, allocator.WithProber(a.Prober))
	}
	if a.Clock != nil {
		opts = append(opts, allocator.WithClock(a.Clock))
	}

	return allocator.New(cfg, opts...)
}

// Events returns the lease event log kept in the state directory.
func (a *App) Events() (*audit.Logger, error) {
	cfg, err := a.LoadConfig()
	if err != nil {
		return nil, err
	}

	return audit.NewLogger(cfg.Dir, a.Clock), nil
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
