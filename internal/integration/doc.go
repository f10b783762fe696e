// Package integration provides a test harness for integration tests that
// run the allocator in several processes at once.
//
// Each worker is the test binary itself, re-executed with a worker
// operation in its environment. Workers share one state directory and a
// TOML config file written by the harness, so they coordinate only through
// the state file and its lock, exactly as independent processes do.
//
// Integration tests are skipped in -short mode. They bind real sockets on
// 127.0.0.1 in the 20000-23100 range.
//
// # Test Harness
//
//	func TestWorkerProcess(t *testing.T) {
//	    if code := integration.RunWorker(os.Stdout, os.Stderr); code >= 0 {
//	        os.Exit(code)
//	    }
//	}
//
//	func TestMyIntegration(t *testing.T) {
//	    h := integration.NewHarness(t, 20000, 20100, time.Hour, "TestWorkerProcess")
//	    results := h.RunWorkers(ctx, 4, integration.OpAllocate, "2", "label")
//	    st := h.ReadState()
//	}
//
// # Running Integration Tests
//
//	go test -v ./internal/integration/...
package integration
