package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

var gcForce bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Reclaim expired leases",
	Long: `Removes leases whose expiry has passed from the state file.

Without --force, prints what would be reclaimed (dry run).
With --force, writes the reclaimed state.

Expired leases are also reclaimed lazily by every allocate, so gc is only
needed to tidy the state file or to inspect what has lapsed.`,
	Args: cobra.NoArgs,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcForce, "force", false, "Actually remove expired leases (default is dry run)")
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) error {
	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	if !gcForce {
		expired, err := alloc.Expired(cmd.Context())
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			logInfo("No expired leases found")
			return nil
		}
		printGCDryRun(cmd.OutOrStdout(), expired)
		return nil
	}

	removed, err := alloc.Reclaim(cmd.Context())
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		logInfo("No expired leases found")
		return nil
	}

	recordEvents(audit.EventReclaim, "gc", removed...)
	for _, r := range removed {
		logInfo("Reclaimed %s", describeLease(r))
	}
	logSuccess("Garbage collection complete")
	return nil
}

func printGCDryRun(w io.Writer, expired []state.Allocation) {
	fmt.Fprintln(w, "Dry run (use --force to actually clean up):")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Expired leases:")
	for _, e := range expired {
		fmt.Fprintf(w, "  %s\n", describeLease(e))
	}
}

// describeLease renders a lease as "10000-10002 (ci)".
func describeLease(a state.Allocation) string {
	s := fmt.Sprintf("%d-%d", a.Base, a.End()-1)
	if a.Label != "" {
		s += " (" + a.Label + ")"
	}
	return s
}
