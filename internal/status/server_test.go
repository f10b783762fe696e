package status

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

type fakeSource struct {
	allocs []state.Allocation
	err    error
}

func (f *fakeSource) Window() (int, int)   { return 10000, 10010 }
func (f *fakeSource) Lease() time.Duration { return 2 * time.Hour }
func (f *fakeSource) List(ctx context.Context) ([]state.Allocation, error) {
	return f.allocs, f.err
}

func newTestServer(src Source, now *time.Time) *Server {
	return NewServer(&Config{
		ListenAddr: "127.0.0.1:0",
		Source:     src,
		Logger:     logging.Discard(),
		Clock:      func() time.Time { return *now },
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	s := newTestServer(&fakeSource{}, &now)

	rec := get(t, s.Router(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	src := &fakeSource{allocs: []state.Allocation{
		{Base: 10000, Size: 3, ExpiresAt: 1_760_000_120, Label: "ci"},
		{Base: 10005, Size: 2, ExpiresAt: 1_760_000_060},
	}}
	s := newTestServer(src, &now)
	now = now.Add(90 * time.Second)

	rec := get(t, s.Router(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, Window{Low: 10000, High: 10010}, report.Window)
	assert.Equal(t, int64(7200), report.LeaseSeconds)
	assert.Equal(t, int64(90), report.UptimeSeconds)
	assert.Equal(t, 5, report.PortsInUse)
	require.Len(t, report.Leases, 2)
	assert.Equal(t, 10000, report.Leases[0].Base)
	assert.Equal(t, 10003, report.Leases[0].End)
	assert.Equal(t, "ci", report.Leases[0].Label)
	assert.True(t, report.Leases[1].ExpiresAt.Equal(time.Unix(1_760_000_060, 0)))
}

func TestStatus_EmptyLeasesIsArray(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	s := newTestServer(&fakeSource{}, &now)

	rec := get(t, s.Router(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"leases":[]`)
}

func TestStatus_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"corrupt", errors.CorruptState("/tmp/state.json", fmt.Errorf("bad")), http.StatusServiceUnavailable},
		{"storage", errors.StorageError("disk gone", nil), http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Unix(1_760_000_000, 0)
			s := newTestServer(&fakeSource{err: tt.err}, &now)

			rec := get(t, s.Router(), "/status")
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	s := newTestServer(&fakeSource{}, &now)

	assert.Equal(t, http.StatusNotFound, get(t, s.Router(), "/nope").Code)

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(&Config{Source: &fakeSource{}, Logger: logging.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	s := NewServer(&Config{ListenAddr: "256.0.0.1:bad", Source: &fakeSource{}, Logger: logging.Discard()})

	err := s.ListenAndServe(context.Background())
	assert.Error(t, err)
}
