package status

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Source is the allocator view the server reports on.
type Source interface {
	Window() (low, high int)
	Lease() time.Duration
	List(ctx context.Context) ([]state.Allocation, error)
}

// Config holds status server configuration
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8089")
	ListenAddr string

	// Source provides the leases
	Source Source

	// Logger for request logging
	Logger *slog.Logger

	// Clock is the time source for uptime. Defaults to time.Now.
	Clock func() time.Time
}

// Window is the allocatable range in a status report.
type Window struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Report is the body of GET /status.
type Report struct {
	Window        Window        `json:"window"`
	LeaseSeconds  int64         `json:"lease_seconds"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Leases        []state.Lease `json:"leases"`
	PortsInUse    int           `json:"ports_in_use"`
}

// Server is the status HTTP server
type Server struct {
	config  *Config
	started time.Time
	server  *http.Server
}

// NewServer creates a status server. It does not start listening.
func NewServer(cfg *Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &Server{
		config:  cfg,
		started: cfg.Clock(),
	}
	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.logRequests)

	router.Get("/health", s.handleHealth)
	router.Get("/status", s.handleStatus)

	return router
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.ListenAddr)
	if err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to listen on "+s.config.ListenAddr, err)
	}
	s.config.Logger.Info("status server listening", "addr", ln.Addr().String())
	return s.Serve(ctx, ln)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	allocs, err := s.config.Source.List(r.Context())
	if err != nil {
		s.config.Logger.Error("failed to list leases", "error", err)
		writeJSON(w, statusCode(err), map[string]string{"error": err.Error()})
		return
	}

	low, high := s.config.Source.Window()
	report := Report{
		Window:        Window{Low: low, High: high},
		LeaseSeconds:  int64(s.config.Source.Lease() / time.Second),
		UptimeSeconds: int64(s.config.Clock().Sub(s.started) / time.Second),
		Leases:        state.Views(allocs),
	}
	for _, a := range allocs {
		report.PortsInUse += a.Size
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.config.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// statusCode maps allocator errors onto HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, errors.ErrCorruptState), errors.Is(err, errors.ErrStorage):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
