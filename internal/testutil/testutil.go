package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// Epoch is the instant every test Clock starts at.
var Epoch = time.Unix(1_760_000_000, 0)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to Epoch.
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Prober reports a fixed set of ports as bound and records every probe.
type Prober struct {
	mu     sync.Mutex
	busy   map[int]bool
	probed []int
}

// NewProber returns a Prober with the given ports bound.
func NewProber(busy ...int) *Prober {
	p := &Prober{busy: make(map[int]bool)}
	for _, port := range busy {
		p.busy[port] = true
	}
	return p
}

// Probe reports port as free unless it was marked busy.
func (p *Prober) Probe(ctx context.Context, port int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed = append(p.probed, port)
	return !p.busy[port], nil
}

// Bind marks port as busy from now on.
func (p *Prober) Bind(port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy[port] = true
}

// Probed returns the ports probed so far, in order.
func (p *Prober) Probed() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.probed...)
}

// TestEnv holds the test environment
type TestEnv struct {
	T      *testing.T
	Config *config.Config
	Clock  *Clock
	Prober *Prober
}

// NewTestEnv creates a config for the window [low, high) in a fresh
// temporary state directory, with a two-minute lease.
func NewTestEnv(t *testing.T, low, high int) *TestEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Low = low
	cfg.High = high
	cfg.Lease = 2 * time.Minute

	return &TestEnv{
		T:      t,
		Config: cfg,
		Clock:  NewClock(),
		Prober: NewProber(),
	}
}

// StatePath returns the state file path.
func (e *TestEnv) StatePath() string {
	e.T.Helper()

	path, err := e.Config.StatePath()
	if err != nil {
		e.T.Fatalf("Failed to resolve state path: %v", err)
	}
	return path
}

// ReadState loads the state file, failing the test on error.
func (e *TestEnv) ReadState() *state.State {
	e.T.Helper()

	st, err := state.NewStore(e.StatePath()).Read()
	if err != nil {
		e.T.Fatalf("Failed to read state: %v", err)
	}
	return st
}

// WriteState writes raw content to the state file.
func (e *TestEnv) WriteState(content string) {
	e.T.Helper()

	if err := os.WriteFile(e.StatePath(), []byte(content), 0o644); err != nil {
		e.T.Fatalf("Failed to write state: %v", err)
	}
}

// UseFixture installs a state fixture as the state file.
func (e *TestEnv) UseFixture(name string) {
	e.T.Helper()

	data, err := LoadFixture(name)
	if err != nil {
		e.T.Fatalf("Failed to load fixture %s: %v", name, err)
	}
	e.WriteState(string(data))
}
