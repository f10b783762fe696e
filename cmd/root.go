package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	stateDir   string
)

var rootCmd = &cobra.Command{
	Use:   "forage-ports",
	Short: "Cooperative ephemeral port-range allocator",
	Long: `forage-ports hands out disjoint ranges of consecutive network ports to
independent processes on one host.

Coordination happens through two files in a shared state directory:
  - state.json  the leased ranges and the next search position
  - state.lock  an advisory lock held for the length of each operation

Leases expire after a configurable time and are reclaimed lazily.
Candidate ports are probed with a TCP and UDP bind before they are handed
out, so ports held by unrelated processes are skipped.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&stateDir, "dir", "", "State directory (overrides config and FORAGE_PORTS_DIR)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)
