package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/system"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/testutil"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// useDefaultConfig points the user directories at fresh temp dirs and
// installs an app that loads its config the way a first run would.
func useDefaultConfig(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	cache := filepath.Join(home, "cache")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	for _, key := range []string{
		config.EnvConfigFile, config.EnvDir, config.EnvLow, config.EnvHigh,
		config.EnvLease, config.EnvProbeTimeout, config.EnvProbeHost,
	} {
		t.Setenv(key, "")
	}

	app.SetDefault(app.New(
		app.WithProber(testutil.NewProber()),
		app.WithExecutor(system.NewMockExecutor()),
	))
	t.Cleanup(app.ResetDefault)

	return filepath.Join(cache, config.AppName)
}

func TestAllocateCommand_CreatesDefaultStateDir(t *testing.T) {
	dir := useDefaultConfig(t)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("state directory should not exist yet (stat: %v)", err)
	}

	stdout, _, err := executeCommand("allocate", "--size", "2")
	if err != nil {
		t.Fatalf("allocate on a fresh host failed: %v", err)
	}
	if stdout == "" {
		t.Error("allocate should print the base port")
	}

	st, err := state.NewStore(filepath.Join(dir, config.StateFileName)).Read()
	if err != nil {
		t.Fatalf("Failed to read state: %v", err)
	}
	if len(st.Allocations) != 1 {
		t.Errorf("state has %d leases, want 1", len(st.Allocations))
	}
}

func TestLoadConfig_StateDirNotCreatable(t *testing.T) {
	setupTestEnv(t)

	// A regular file where the directory should be.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := writeFile(blocker, "x"); err != nil {
		t.Fatal(err)
	}

	_, _, err := executeCommand("--dir", filepath.Join(blocker, "state"), "allocate")
	assertExitCode(t, err, errors.ExitStorage)
}
