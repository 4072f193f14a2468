package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/probelab/pybindgen/cmd/pybindgen/commands"
	"github.com/probelab/pybindgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pybindgen",
	Short: "pybindgen - generate cpython bindings and runtime offsets",
	Long: `pybindgen - version-compatibility artifact generator for the inspector.

For each cpython release tag it can produce the two artifacts the
out-of-process inspector needs to read interpreter state from another
process's memory:

  bindings - Rust declarations for a whitelisted set of internal types
  offsets  - byte offsets of interpreters.head and gilstate.tstate_current
             inside _PyRuntimeState

plus a convenience mode to build the interpreters themselves for testing.

Examples:
  pybindgen bindings v3.7.0          # Extract declarations for one version
  pybindgen bindings --all           # Every known version
  pybindgen offsets v3.8.0b4         # Print runtime offsets
  pybindgen build v3.6.6             # Build an interpreter for testing`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.BindingsCmd)
	rootCmd.AddCommand(commands.OffsetsCmd)
	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
