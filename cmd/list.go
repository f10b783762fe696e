package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "ps"},
	Short:   "List live leases",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", formatTable, "Output format: table, json, yaml")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if err := checkFormat(listOutput, formatTable, formatJSON, formatYAML); err != nil {
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

	out := cmd.OutOrStdout()
	switch listOutput {
	case formatJSON:
		return writeJSON(out, state.Views(leases))
	case formatYAML:
		return writeYAML(out, state.Views(leases))
	}

	if len(leases) == 0 {
		logInfo("No active leases. Create one with: forage-ports allocate --size <n>")
		return nil
	}

	current := now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BASE\tEND\tSIZE\tEXPIRES\tLABEL")
	fmt.Fprintln(w, "----\t---\t----\t-------\t-----")

	for _, l := range leases {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n",
			l.Base, l.End()-1, l.Size, formatExpiry(l, current), l.Label)
	}

	return w.Flush()
}

// formatExpiry renders the remaining lease time.
func formatExpiry(l state.Allocation, now time.Time) string {
	remaining := l.Expiry().Sub(now).Truncate(time.Second)
	if remaining <= 0 {
		return "expired"
	}
	return "in " + remaining.String()
}
