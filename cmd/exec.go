package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/allocator"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/system"
)

// releaseTimeout bounds the lock wait when releasing after the workload
// exits.
const releaseTimeout = 30 * time.Second

var (
	execSize  int
	execLabel string
	execLease time.Duration
	execKeep  bool
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command> [args...]",
	Short: "Run a command with a leased port range",
	Long: `Leases a port range, then runs the command with the range in its
environment:

  FORAGE_PORT_BASE   first port of the range
  FORAGE_PORT_COUNT  number of ports
  FORAGE_PORT_LABEL  the --label, if any
  FORAGE_PORT_<i>    each port, for i from 0 to COUNT-1

The lease is released when the command exits unless --keep is given.
The command's exit status is passed through.`,
	Example: `  forage-ports exec --size 2 -- sh -c 'server --port $FORAGE_PORT_0'`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runExec,
}

func init() {
	execCmd.Flags().IntVarP(&execSize, "size", "n", 1, "Number of consecutive ports")
	execCmd.Flags().StringVarP(&execLabel, "label", "l", "", "Free-text label stored with the lease")
	execCmd.Flags().DurationVar(&execLease, "lease", 0, "Lease duration (default from config)")
	execCmd.Flags().BoolVar(&execKeep, "keep", false, "Keep the lease after the command exits")
	execCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	label := execLabel
	if label == "" {
		label = args[0]
	}

	lease, err := alloc.Reserve(cmd.Context(), allocator.Request{
		Size:  execSize,
		Label: label,
		Lease: execLease,
	})
	if err != nil {
		return err
	}

	recordEvents(audit.EventExec, shellquote.Join(args...), lease)

	logging.Debug("running workload",
		"command", shellquote.Join(args...),
		logging.Range(lease.Base, lease.Size),
	)

	// Interrupts go to the workload; we stay up to release the lease.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	runErr := app.Default.Executor.Run(cmd.Context(), system.Command{
		Name:    args[0],
		Args:    args[1:],
		Env:     leaseEnv(lease),
		Signals: signals,
	})

	if execKeep {
		logging.Debug("keeping lease", "base", lease.Base, "expires_at", lease.Expiry())
	} else {
		releaseLease(alloc, lease)
	}

	if runErr == nil {
		return nil
	}
	if code, ok := system.ExitStatus(runErr); ok {
		return errors.New(code, fmt.Sprintf("%s exited with status %d", args[0], code))
	}
	return errors.Wrap(errors.ExitGeneralError, "failed to run "+shellquote.Join(args...), runErr)
}

// releaseLease drops the lease after the workload exits. A lease that has
// already lapsed or been released elsewhere is not an error.
func releaseLease(alloc *allocator.Allocator, lease state.Allocation) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	base := lease.Base
	err := alloc.Release(ctx, base)
	switch {
	case err == nil:
		logging.Debug("released lease", "base", base)
		recordEvents(audit.EventRelease, "exec finished", lease)
	case errors.Is(err, errors.ErrNotFound):
		logging.Debug("lease already gone", "base", base)
	default:
		logWarning("Failed to release lease at port %d: %v", base, err)
	}
}
