package commands

import (
	"github.com/spf13/cobra"

	"github.com/probelab/pybindgen/pipeline"
)

// BuildCmd builds interpreters into per-version prefixes.
var BuildCmd = &cobra.Command{
	Use:   "build [versions...]",
	Short: "Build cpython releases for testing the inspector",
	Long: `Check out and build cpython releases into per-version install
prefixes inside the working copy, then install setuptools_rust and wheel so
the interpreters can build the inspector's packages.

Examples:
  pybindgen build v3.7.0 v3.6.6
  pybindgen build --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerator(cmd, args, pipeline.ModeBuild, false)
	},
}

func init() {
	addGeneratorFlags(BuildCmd)
}
