package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/monitor"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/status"
)

var (
	statusListen          string
	statusReclaimInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Serve allocator status over HTTP",
	Long: `Starts a read-only HTTP server reporting on the allocator.

Endpoints:
  GET /health  liveness check
  GET /status  window, default lease, uptime and live leases as JSON

While serving, expired leases are reclaimed every --reclaim-interval
(0 disables the sweep). Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusListen, "listen", "127.0.0.1:8089", "Address to listen on")
	statusCmd.Flags().DurationVar(&statusReclaimInterval, "reclaim-interval", time.Minute, "How often to reclaim expired leases (0 disables)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := status.NewServer(&status.Config{
		ListenAddr: statusListen,
		Source:     alloc,
		Logger:     logging.Component("status"),
		Clock:      app.Default.Clock,
	})

	if statusReclaimInterval > 0 {
		events, err := app.Default.Events()
		if err != nil {
			return err
		}
		mon := monitor.New(statusReclaimInterval, alloc,
			monitor.WithAuditLogger(events),
			monitor.WithClock(app.Default.Clock),
		)
		go func() {
			_ = mon.Run(ctx)
		}()
	}

	low, high := alloc.Window()
	logInfo("Serving status for ports %d-%d on http://%s", low, high-1, statusListen)

	return srv.ListenAndServe(ctx)
}
