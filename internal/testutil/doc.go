// Package testutil provides test fixtures and utilities.
//
// # Environment
//
// NewTestEnv creates an allocator configuration rooted in a temporary
// directory, together with a fake clock and a fake prober:
//
//	env := testutil.NewTestEnv(t, 10000, 10010)
//	a, _ := allocator.New(env.Config,
//	    allocator.WithClock(env.Clock.Now),
//	    allocator.WithProber(env.Prober),
//	)
//	env.Clock.Advance(3 * time.Minute)
//	env.Prober.Bind(10001)
//	st := env.ReadState()
//
// # Fixtures
//
// State files and config files are embedded using go:embed:
//
//	fixtures/valid_state.json
//	fixtures/overlapping_state.json
//	fixtures/truncated_state.json
//	fixtures/valid_config.toml
//	fixtures/unknown_key_config.toml
//
// Install a state fixture with env.UseFixture, decode one with
// LoadStateFixture, or copy any fixture to disk with CopyFixture.
package testutil
