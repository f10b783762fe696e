package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
)

var renewLease time.Duration

var renewCmd = &cobra.Command{
	Use:   "renew <base>",
	Short: "Extend a lease",
	Long: `Replaces the lease starting at the given base port with one that expires
a full lease duration from now. Expired leases cannot be renewed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRenew,
}

func init() {
	renewCmd.Flags().DurationVar(&renewLease, "lease", 0, "Lease duration (default from config)")
	rootCmd.AddCommand(renewCmd)
}

func runRenew(cmd *cobra.Command, args []string) error {
	base, err := parseBase(args[0])
	if err != nil {
		return err
	}

	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	renewed, err := alloc.Renew(cmd.Context(), base, renewLease)
	if err != nil {
		return err
	}
	recordEvents(audit.EventRenew, "", renewed)

	logSuccess("Renewed lease at port %d until %s", renewed.Base, renewed.Expiry().Format(time.RFC3339))
	return nil
}
