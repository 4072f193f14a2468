package commands

import (
	"github.com/spf13/cobra"

	"github.com/probelab/pybindgen/pipeline"
)

// BindingsCmd extracts type declarations for one or more versions.
var BindingsCmd = &cobra.Command{
	Use:   "bindings [versions...]",
	Short: "Extract Rust declarations for cpython internal types",
	Long: `Extract Rust declarations for the whitelisted cpython internal types.

For each version, the working copy is checked out at that release tag, the
curated header set is concatenated into a single translation unit, and the
bindgen tool is invoked with an explicit per-type allow-list. The wrapped
output is written into the registry directory as <version>.rs with dots
replaced by underscores.

Requires bindgen on PATH (cargo install bindgen-cli) and a cpython git
checkout.

Examples:
  pybindgen bindings v3.7.0                  # One version
  pybindgen bindings --all                   # Every known version
  pybindgen bindings --configure v3.10.0     # Generate pyconfig.h first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerator(cmd, args, pipeline.ModeBindings, false)
	},
}

func init() {
	addGeneratorFlags(BindingsCmd)
	BindingsCmd.Flags().StringVar(&flagBindgen, "bindgen", "", "bindgen binary to invoke (default: config)")
}
