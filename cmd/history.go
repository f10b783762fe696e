package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/audit"
)

var (
	historyOutput string
	historyLimit  int
	historyClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [base]",
	Short: "Display the lease event log",
	Long: `Shows allocate, renew, release, reclaim and exec events recorded in the
state directory, oldest first. With a base port, only events for the
range starting there are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", formatPlain, "Output format: plain, json (one event per line)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show only the most recent N events")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete the event log")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := checkFormat(historyOutput, formatPlain, formatJSON); err != nil {
		return err
	}

	if _, err := loadConfig(); err != nil {
		return err
	}

	events, err := app.Default.Events()
	if err != nil {
		return err
	}

	if historyClear {
		if err := events.Clear(); err != nil {
			return err
		}
		logSuccess("Cleared event log")
		return nil
	}

	var list []audit.Event
	if len(args) == 1 {
		base, err := parseBase(args[0])
		if err != nil {
			return err
		}
		list, err = events.EventsFor(base)
		if err != nil {
			return fmt.Errorf("failed to read event log: %w", err)
		}
	} else {
		list, err = events.Events()
		if err != nil {
			return fmt.Errorf("failed to read event log: %w", err)
		}
	}

	if historyLimit > 0 && len(list) > historyLimit {
		list = list[len(list)-historyLimit:]
	}

	if len(list) == 0 {
		logInfo("No events found")
		return nil
	}

	return printHistory(cmd.OutOrStdout(), list, historyOutput)
}

func printHistory(w io.Writer, events []audit.Event, format string) error {
	for _, e := range events {
		if format == formatJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(w, string(data))
			continue
		}

		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		line := fmt.Sprintf("[%s] %-8s %d", ts, e.Type, e.Base)
		if e.Size > 1 {
			line = fmt.Sprintf("[%s] %-8s %d-%d", ts, e.Type, e.Base, e.Base+e.Size-1)
		}
		if e.Label != "" {
			line += " " + e.Label
		}
		if e.Details != "" {
			line += " (" + e.Details + ")"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
