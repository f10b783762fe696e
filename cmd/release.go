package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/allocator"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/tui"
)

var releasePick bool

var releaseCmd = &cobra.Command{
	Use:   "release [base]",
	Short: "Release a lease before it expires",
	Long: `Releases the lease starting at the given base port.

With --pick, opens an interactive picker instead.

Picker keys:
  Enter/d  - Release selected lease
  r        - Renew selected lease
  /        - Filter by label or port
  q/Esc    - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().BoolVar(&releasePick, "pick", false, "Choose the lease interactively")
	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	if releasePick == (len(args) == 1) {
		return errors.ValidationError("usage: forage-ports release <base> | --pick")
	}

	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	if releasePick {
		return runReleasePicker(cmd, alloc)
	}

	base, err := parseBase(args[0])
	if err != nil {
		return err
	}

	if err := alloc.Release(cmd.Context(), base); err != nil {
		return err
	}
	recordEvents(audit.EventRelease, "", state.Allocation{Base: base})

	logSuccess("Released lease at port %d", base)
	return nil
}

func runReleasePicker(cmd *cobra.Command, alloc *allocator.Allocator) error {
	logging.Debug("picker mode started")

	leases, err := alloc.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list leases: %w", err)
	}

	if len(leases) == 0 {
		logInfo("No active leases")
		return nil
	}

	result, err := tui.RunPicker(leases, now())
	if err != nil {
		return fmt.Errorf("picker error: %w", err)
	}

	logging.Debug("picker result", "action", result.Action)

	switch result.Action {
	case tui.ActionRelease:
		if err := alloc.Release(cmd.Context(), result.Lease.Base); err != nil {
			return err
		}
		recordEvents(audit.EventRelease, "picker", *result.Lease)
		logSuccess("Released lease at port %d", result.Lease.Base)

	case tui.ActionRenew:
		renewed, err := alloc.Renew(cmd.Context(), result.Lease.Base, 0)
		if err != nil {
			return err
		}
		recordEvents(audit.EventRenew, "picker", renewed)
		logSuccess("Renewed lease at port %d until %s", renewed.Base, renewed.Expiry().Format("15:04:05"))

	case tui.ActionQuit, tui.ActionNone:
		// Just exit cleanly
	}

	return nil
}
