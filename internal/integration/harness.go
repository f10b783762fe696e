package integration

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	shellquote "github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/allocator"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// Environment variables passed to worker processes.
const (
	EnvWorkerOp   = "FORAGE_PORTS_TEST_WORKER"
	EnvWorkerArgs = "FORAGE_PORTS_TEST_WORKER_ARGS"
)

// OpAllocate leases a range and prints it as JSON. The worker exits
// without releasing it.
const OpAllocate = "allocate"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WorkerResult is what one worker process reported.
type WorkerResult struct {
	Lease    state.Lease
	ExitCode int
	Stderr   string
}

// TestHarness runs allocator operations in separate processes that share
// one state directory.
type TestHarness struct {
	t          *testing.T
	dir        string
	configFile string
	workerTest string
}

// NewHarness creates a new test harness for the window [low, high).
// workerTest names the test function that calls RunWorker in the child.
// It will skip the test in -short mode.
func NewHarness(t *testing.T, low, high int, lease time.Duration, workerTest string) *TestHarness {
	t.Helper()

	if testing.Short() {
		t.Skip("integration tests disabled in short mode")
	}

	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "state")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dir, err)
	}

	configFile := filepath.Join(tempDir, "config.toml")
	content := fmt.Sprintf("dir = %q\nlow = %d\nhigh = %d\nlease = %q\n", dir, low, high, lease.String())
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	return &TestHarness{
		t:          t,
		dir:        dir,
		configFile: configFile,
		workerTest: workerTest,
	}
}

// Dir returns the shared state directory.
func (h *TestHarness) Dir() string {
	return h.dir
}

// Config loads the configuration the workers see.
func (h *TestHarness) Config() *config.Config {
	h.t.Helper()

	cfg := config.Default()
	if err := cfg.LoadFile(h.configFile); err != nil {
		h.t.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// Allocator returns an in-process allocator over the shared state.
func (h *TestHarness) Allocator() *allocator.Allocator {
	h.t.Helper()

	a, err := allocator.New(h.Config())
	if err != nil {
		h.t.Fatalf("Failed to create allocator: %v", err)
	}
	return a
}

// ReadState loads the shared state file.
func (h *TestHarness) ReadState() *state.State {
	h.t.Helper()

	st, err := state.NewStore(filepath.Join(h.dir, config.StateFileName)).Read()
	if err != nil {
		h.t.Fatalf("Failed to read state: %v", err)
	}
	return st
}

// Command builds a worker process running op with args.
func (h *TestHarness) Command(ctx context.Context, op string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^"+h.workerTest+"$")
	cmd.Env = append(os.Environ(),
		EnvWorkerOp+"="+op,
		EnvWorkerArgs+"="+shellquote.Join(args...),
		config.EnvConfigFile+"="+h.configFile,
	)
	return cmd
}

// RunWorkers starts n workers at once and waits for all of them.
func (h *TestHarness) RunWorkers(ctx context.Context, n int, op string, args ...string) []WorkerResult {
	h.t.Helper()

	type running struct {
		cmd            *exec.Cmd
		stdout, stderr bytes.Buffer
	}

	workers := make([]*running, n)
	for i := range workers {
		w := &running{cmd: h.Command(ctx, op, args...)}
		w.cmd.Stdout = &w.stdout
		w.cmd.Stderr = &w.stderr
		if err := w.cmd.Start(); err != nil {
			h.t.Fatalf("Failed to start worker %d: %v", i, err)
		}
		workers[i] = w
	}

	results := make([]WorkerResult, n)
	for i, w := range workers {
		err := w.cmd.Wait()
		results[i].Stderr = w.stderr.String()
		if err != nil {
			exitErr, ok := err.(*exec.ExitError)
			if !ok {
				h.t.Fatalf("Worker %d failed: %v", i, err)
			}
			results[i].ExitCode = exitErr.ExitCode()
			continue
		}
		lease, err := parseLease(&w.stdout)
		if err != nil {
			h.t.Fatalf("Worker %d printed no lease: %v\nstderr: %s", i, err, w.stderr.String())
		}
		results[i].Lease = lease
	}

	return results
}

func parseLease(r io.Reader) (state.Lease, error) {
	var lease state.Lease
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "{") {
			err := json.Unmarshal([]byte(line), &lease)
			return lease, err
		}
	}
	return lease, fmt.Errorf("no JSON line in output")
}

// RunWorker executes the worker operation named in the environment and
// returns the process exit code. It returns -1 when the process is not a
// worker.
//
//	allocate <size> [label]
func RunWorker(stdout, stderr io.Writer) int {
	op := os.Getenv(EnvWorkerOp)
	if op == "" {
		return -1
	}
	if op != OpAllocate {
		fmt.Fprintf(stderr, "unknown worker op %q\n", op)
		return 2
	}

	args, err := shellquote.Split(os.Getenv(EnvWorkerArgs))
	if err != nil || len(args) == 0 {
		fmt.Fprintf(stderr, "bad worker args: %v\n", err)
		return 2
	}
	size, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "bad size %q\n", args[0])
		return 2
	}
	var label string
	if len(args) > 1 {
		label = args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errors.GetExitCode(err)
	}
	a, err := allocator.New(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errors.GetExitCode(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lease, err := a.Reserve(ctx, allocator.Request{Size: size, Label: label})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errors.GetExitCode(err)
	}

	data, err := json.Marshal(lease.View())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}
