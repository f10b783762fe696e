package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/allocator"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
)

var (
	allocateSize   int
	allocateLabel  string
	allocateLease  time.Duration
	allocateOutput string
)

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Lease a range of consecutive ports",
	Long: `Leases --size consecutive ports and prints the first one.

Output formats:
  plain  the base port only (default)
  json   the lease record
  yaml   the lease record
  env    FORAGE_PORT_BASE, FORAGE_PORT_COUNT and FORAGE_PORT_<i>
         assignments, suitable for eval`,
	Example: `  forage-ports allocate --size 3
  eval "$(forage-ports allocate --size 2 --label ci -o env)"`,
	Args: cobra.NoArgs,
	RunE: runAllocate,
}

func init() {
	allocateCmd.Flags().IntVarP(&allocateSize, "size", "n", 1, "Number of consecutive ports")
	allocateCmd.Flags().StringVarP(&allocateLabel, "label", "l", "", "Free-text label stored with the lease")
	allocateCmd.Flags().DurationVar(&allocateLease, "lease", 0, "Lease duration (default from config)")
	allocateCmd.Flags().StringVarP(&allocateOutput, "output", "o", formatPlain, "Output format: plain, json, yaml, env")
	rootCmd.AddCommand(allocateCmd)
}

func runAllocate(cmd *cobra.Command, args []string) error {
	if err := checkFormat(allocateOutput, formatPlain, formatJSON, formatYAML, formatEnv); err != nil {
		return err
	}

	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	lease, err := alloc.Reserve(cmd.Context(), allocator.Request{
		Size:  allocateSize,
		Label: allocateLabel,
		Lease: allocateLease,
	})
	if err != nil {
		return err
	}

	logging.Debug("allocated ports", logging.Range(lease.Base, lease.Size), "label", lease.Label)
	recordEvents(audit.EventAllocate, "", lease)

	out := cmd.OutOrStdout()
	switch allocateOutput {
	case formatJSON:
		return writeJSON(out, lease.View())
	case formatYAML:
		return writeYAML(out, lease.View())
	case formatEnv:
		return writeEnv(out, lease)
	default:
		_, err := fmt.Fprintln(out, lease.Base)
		return err
	}
}
