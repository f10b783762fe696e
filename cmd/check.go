package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

var checkOutput string

var checkCmd = &cobra.Command{
	Use:   "check [base]",
	Short: "Show which leased ports are bound",
	Long: `Probes every port of the live leases (or of the lease at base) and
reports whether its workload is listening:

  serving  every port is bound
  partial  some ports are bound
  idle     no port is bound`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// leaseHealth is the JSON form of a check result.
type leaseHealth struct {
	state.Lease
	Status health.Status `json:"status"`
	Bound  []int         `json:"bound"`
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", formatTable, "Output format: table, json")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := checkFormat(checkOutput, formatTable, formatJSON); err != nil {
		return err
	}

	alloc, err := newAllocator()
	if err != nil {
		return err
	}

	leases, err := alloc.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list leases: %w", err)
	}

	if len(args) == 1 {
		base, err := parseBase(args[0])
		if err != nil {
			return err
		}
		var match []state.Allocation
		for _, l := range leases {
			if l.Base == base {
				match = append(match, l)
			}
		}
		if len(match) == 0 {
			return errors.LeaseNotFound(base)
		}
		leases = match
	}

	results, err := health.CheckAll(cmd.Context(), alloc.Prober(), leases, now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if checkOutput == formatJSON {
		views := make([]leaseHealth, 0, len(results))
		for _, r := range results {
			views = append(views, leaseHealth{Lease: r.Lease.View(), Status: r.Status, Bound: r.Bound})
		}
		return writeJSON(out, views)
	}

	if len(results) == 0 {
		logInfo("No active leases")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BASE\tEND\tSTATUS\tBOUND\tREMAINING\tLABEL")
	fmt.Fprintln(w, "----\t---\t------\t-----\t---------\t-----")

	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			r.Lease.Base, r.Lease.End()-1, r.Status, formatPorts(r.Bound), r.Remaining, r.Lease.Label)
	}

	return w.Flush()
}

// formatPorts renders a port list as "10000,10002" or "-" when empty.
func formatPorts(ports []int) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
