package commands

import (
	"github.com/spf13/cobra"

	"github.com/probelab/pybindgen/checkout"
	"github.com/probelab/pybindgen/config"
	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/extract"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/pipeline"
	"github.com/probelab/pybindgen/pyver"
	"github.com/probelab/pybindgen/toolchain"
)

var (
	flagCPython   string
	flagRegistry  string
	flagBindgen   string
	flagCompiler  string
	flagConfigure bool
	flagAll       bool
)

// addGeneratorFlags registers the flags shared by the generation commands.
func addGeneratorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCPython, "cpython", "", "path (or clone URL) of the cpython repo (default: config)")
	cmd.Flags().StringVar(&flagRegistry, "registry", "", "artifact output directory (default: config)")
	cmd.Flags().BoolVar(&flagConfigure, "configure", false, "run ./configure before generating")
	cmd.Flags().BoolVar(&flagAll, "all", false, "process all known versions")
}

// resolveLabels turns positional args (or --all) into the version list.
func resolveLabels(args []string) ([]pyver.Label, error) {
	if flagAll {
		return pyver.KnownLabels, nil
	}
	if len(args) == 0 {
		return nil, errors.WithHint(
			errors.New("no versions given"),
			"pass versions of cpython to process, or --all")
	}
	labels := make([]pyver.Label, 0, len(args))
	for _, a := range args {
		labels = append(labels, pyver.Label(a))
	}
	return labels, nil
}

// runGenerator is the shared driver behind the bindings and offsets
// commands: merge config and flags, resolve the source tree, run the batch,
// and report.
func runGenerator(cmd *cobra.Command, args []string, mode pipeline.Mode, writeOffsets bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagCPython == "" {
		flagCPython = cfg.CPython
	}
	if flagRegistry == "" {
		flagRegistry = cfg.Registry
	}
	if flagBindgen == "" {
		flagBindgen = cfg.Bindgen
	}
	if flagCompiler == "" {
		flagCompiler = cfg.Compiler
	}

	labels, err := resolveLabels(args)
	if err != nil {
		return err
	}

	log := logger.Logger

	source, err := checkout.Resolve(flagCPython, log.Named("source"))
	if err != nil {
		return errors.WithHint(err, "pass a valid cpython working copy with --cpython <path>")
	}
	defer source.Cleanup()

	compiler, err := toolchain.FromCommand(flagCompiler)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		CPython:      source.LocalPath,
		Registry:     flagRegistry,
		Mode:         mode,
		Configure:    flagConfigure,
		WriteOffsets: writeOffsets,
	}
	p := pipeline.New(opts, compiler, extract.New(flagBindgen, log.Named("extract")), log)

	results := p.Run(cmd.Context(), labels)
	pipeline.PrintSummary(results)

	if pipeline.AnyFailed(results) {
		return errors.New("one or more versions failed")
	}
	return nil
}
