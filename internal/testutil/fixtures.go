package testutil

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

//go:embed fixtures/*.json fixtures/*.toml
var fixturesFS embed.FS

// Fixture names.
const (
	ValidStateFixture       = "valid_state.json"
	OverlappingStateFixture = "overlapping_state.json"
	TruncatedStateFixture   = "truncated_state.json"
	ValidConfigFixture      = "valid_config.toml"
	UnknownKeyConfigFixture = "unknown_key_config.toml"
)

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadStateFixture decodes a state fixture with the state file codec.
func LoadStateFixture(name string) (*state.State, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	return state.Decode(name, data)
}

// ValidState returns the valid state fixture: two leases at 10000 (size 3,
// label "ci-42") and 10003 (size 4), next hint 10007.
func ValidState() (*state.State, error) {
	return LoadStateFixture(ValidStateFixture)
}

// LoadConfigFixture overlays a TOML fixture onto the default config.
func LoadConfigFixture(t *testing.T, name string) (*config.Config, error) {
	t.Helper()

	path := CopyFixture(t, name, t.TempDir())
	cfg := config.Default()
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CopyFixture writes fixture name into dir and returns its path.
func CopyFixture(t *testing.T, name, dir string) string {
	t.Helper()

	data, err := LoadFixture(name)
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}
