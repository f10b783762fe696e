package cmd

import (
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/testutil"
)

func TestCheckCommand(t *testing.T) {
	prober := testutil.NewProber()
	setupTestEnv(t, app.WithProber(prober))

	if _, _, err := executeCommand("allocate", "--size", "2", "--label", "web"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := executeCommand("allocate", "--size", "1"); err != nil {
		t.Fatal(err)
	}

	// The workload for the first lease starts listening on one port.
	prober.Bind(10001)

	stdout, _, err := executeCommand("check")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	for _, want := range []string{"STATUS", "partial", "10001", "web", "idle"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("check output should contain %q:\n%s", want, stdout)
		}
	}
}

func TestCheckCommand_JSONSingleLease(t *testing.T) {
	prober := testutil.NewProber()
	setupTestEnv(t, app.WithProber(prober))

	if _, _, err := executeCommand("allocate", "--size", "2"); err != nil {
		t.Fatal(err)
	}
	prober.Bind(10000)
	prober.Bind(10001)

	stdout, _, err := executeCommand("check", "10000", "-o", "json")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	var results []leaseHealth
	if err := json.Unmarshal([]byte(stdout), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Base != 10000 || results[0].Status != health.StatusServing || len(results[0].Bound) != 2 {
		t.Errorf("result = %+v", results[0])
	}
}

func TestCheckCommand_Errors(t *testing.T) {
	env := setupTestEnv(t)

	_, _, err := executeCommand("check", "10000")
	assertExitCode(t, err, errors.ExitNotFound)

	_, _, err = executeCommand("check", "-o", "yaml")
	assertExitCode(t, err, errors.ExitInvalidArgument)

	if _, _, err := executeCommand("check"); err != nil {
		t.Fatalf("check with no leases failed: %v", err)
	}
	if !strings.Contains(env.userOut.String(), "No active leases") {
		t.Error("check should report that there are no leases")
	}
}

func TestFormatPorts(t *testing.T) {
	if got := formatPorts(nil); got != "-" {
		t.Errorf("formatPorts(nil) = %q, want %q", got, "-")
	}
	if got := formatPorts([]int{10000, 10002}); got != "10000,10002" {
		t.Errorf("formatPorts = %q", got)
	}
}
