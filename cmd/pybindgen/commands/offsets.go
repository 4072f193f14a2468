package commands

import (
	"github.com/spf13/cobra"

	"github.com/probelab/pybindgen/pipeline"
)

var flagWriteOffsets bool

// OffsetsCmd probes _PyRuntimeState field offsets for one or more versions.
var OffsetsCmd = &cobra.Command{
	Use:   "offsets [versions...]",
	Short: "Compute _PyRuntimeState field offsets",
	Long: `Compute the byte offsets of interpreters.head and
gilstate.tstate_current inside _PyRuntimeState.

A small C program is compiled against the checked-out headers with the
host platform's compiler and executed; its two printed declarations go to
stdout verbatim, ready to embed in the consuming inspector. Offsets are
platform-specific: run this on each platform you target.

Examples:
  pybindgen offsets v3.7.0              # Print offsets for one version
  pybindgen offsets --write v3.7.0      # Also persist to the registry
  pybindgen offsets --configure v3.7.0  # Generate pyconfig.h first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerator(cmd, args, pipeline.ModeOffsets, flagWriteOffsets)
	},
}

func init() {
	addGeneratorFlags(OffsetsCmd)
	OffsetsCmd.Flags().StringVar(&flagCompiler, "cc", "", `compiler override, e.g. "ccache gcc" (default: platform detection)`)
	OffsetsCmd.Flags().BoolVar(&flagWriteOffsets, "write", false, "also write an offsets artifact to the registry")
}
