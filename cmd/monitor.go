package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Reclaim expired leases in the background",
	Long: `Periodically removes expired leases from the state file and records
them in the event log. Runs in the foreground until interrupted.

Can be wrapped in a systemd service for persistent cleanup.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var monitorInterval time.Duration

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", time.Minute, "Reclaim interval")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	events, err := app.Default.Events()
	if err != nil {
		return err
	}

	mon := monitor.New(monitorInterval, alloc,
		monitor.WithAuditLogger(events),
		monitor.WithClock(app.Default.Clock),
	)

	logInfo("Starting lease monitor (interval: %s)", monitorInterval)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = mon.Run(ctx)
	if err == context.Canceled {
		stats := mon.Stats()
		logInfo("Monitor stopped after %d sweeps (%d leases reclaimed)", stats.Sweeps, stats.Reclaimed)
		return nil
	}
	return err
}
