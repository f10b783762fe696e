package integration

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
)

// TestWorkerProcess is not a real test. It is re-executed as a worker
// process by the harness.
func TestWorkerProcess(t *testing.T) {
	if code := RunWorker(os.Stdout, os.Stderr); code >= 0 {
		os.Exit(code)
	}
}

func newHarness(t *testing.T, low, high int, lease time.Duration) *TestHarness {
	return NewHarness(t, low, high, lease, "TestWorkerProcess")
}

func TestConcurrentProcesses_DisjointRanges(t *testing.T) {
	h := newHarness(t, 20000, 20400, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results := h.RunWorkers(ctx, 8, OpAllocate, "3", "worker")

	type span struct{ base, end int }
	var spans []span
	for i, r := range results {
		if r.ExitCode != 0 {
			t.Fatalf("worker %d exited %d: %s", i, r.ExitCode, r.Stderr)
		}
		if r.Lease.Size != 3 || r.Lease.End != r.Lease.Base+3 {
			t.Errorf("worker %d lease = %+v", i, r.Lease)
		}
		if r.Lease.Base < 20000 || r.Lease.End > 20400 {
			t.Errorf("worker %d lease %d-%d outside window", i, r.Lease.Base, r.Lease.End)
		}
		spans = append(spans, span{r.Lease.Base, r.Lease.End})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].base < spans[j].base })
	for i := 1; i < len(spans); i++ {
		if spans[i].base < spans[i-1].end {
			t.Errorf("ranges overlap: %v and %v", spans[i-1], spans[i])
		}
	}

	st := h.ReadState()
	if len(st.Allocations) != len(results) {
		t.Errorf("state has %d leases, want %d", len(st.Allocations), len(results))
	}
	for _, a := range st.Allocations {
		if a.Label != "worker" {
			t.Errorf("lease %d label = %q, want %q", a.Base, a.Label, "worker")
		}
	}
}

func TestConcurrentProcesses_Exhaustion(t *testing.T) {
	h := newHarness(t, 21000, 21006, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results := h.RunWorkers(ctx, 5, OpAllocate, "2")

	var ok int
	for i, r := range results {
		switch r.ExitCode {
		case 0:
			ok++
		case errors.ExitExhausted:
		default:
			t.Errorf("worker %d exited %d: %s", i, r.ExitCode, r.Stderr)
		}
	}

	// At most three 2-port ranges fit; a port bound by another process on
	// the host can only lower that.
	if ok > 3 {
		t.Errorf("%d workers got a lease, want at most 3", ok)
	}
	if n := len(h.ReadState().Allocations); n != ok {
		t.Errorf("state has %d leases, want %d", n, ok)
	}
}

func TestAbandonedLeaseIsReclaimed(t *testing.T) {
	h := newHarness(t, 22000, 22100, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results := h.RunWorkers(ctx, 1, OpAllocate, "2", "abandoned")
	if results[0].ExitCode != 0 {
		t.Fatalf("worker exited %d: %s", results[0].ExitCode, results[0].Stderr)
	}
	base := results[0].Lease.Base

	a := h.Allocator()

	live, err := a.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(live) != 1 || live[0].Base != base {
		t.Fatalf("live leases = %+v, want the worker's lease at %d", live, base)
	}

	// The worker is gone and never released; wait out the lease.
	time.Sleep(2100 * time.Millisecond)

	removed, err := a.Reclaim(ctx)
	if err != nil {
		t.Fatalf("Reclaim() error: %v", err)
	}
	if len(removed) != 1 || removed[0].Base != base || removed[0].Label != "abandoned" {
		t.Errorf("reclaimed = %+v, want the abandoned lease at %d", removed, base)
	}
	if n := len(h.ReadState().Allocations); n != 0 {
		t.Errorf("state has %d leases after reclaim, want 0", n)
	}
}

func TestWorker_BadArguments(t *testing.T) {
	h := newHarness(t, 23000, 23010, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results := h.RunWorkers(ctx, 1, OpAllocate, "0")
	if results[0].ExitCode != errors.ExitInvalidArgument {
		t.Errorf("exit code = %d, want %d", results[0].ExitCode, errors.ExitInvalidArgument)
	}

	results = h.RunWorkers(ctx, 1, "bogus", "1")
	if results[0].ExitCode != 2 {
		t.Errorf("exit code = %d, want 2", results[0].ExitCode)
	}
}
