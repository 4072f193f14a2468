// Package pipeline drives artifact generation across versions.
//
// Each version runs the state machine CheckedOut -> (Configured)? ->
// {Probed | Extracted | Built} -> Written under an exclusive lease on the
// working copy. Versions are processed strictly sequentially: the checkout
// mutates the shared tree, so there is no safe parallelism to exploit. A
// failing version is reported and the batch moves on.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/probelab/pybindgen/artifact"
	"github.com/probelab/pybindgen/checkout"
	"github.com/probelab/pybindgen/configure"
	"github.com/probelab/pybindgen/extract"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/probe"
	"github.com/probelab/pybindgen/pybuild"
	"github.com/probelab/pybindgen/pyver"
	"github.com/probelab/pybindgen/toolchain"
)

// Mode selects what the pipeline produces per version.
type Mode int

const (
	// ModeBindings extracts type declarations.
	ModeBindings Mode = iota
	// ModeOffsets probes runtime-state offsets.
	ModeOffsets
	// ModeBuild builds the interpreter itself.
	ModeBuild
)

func (m Mode) String() string {
	switch m {
	case ModeOffsets:
		return "offsets"
	case ModeBuild:
		return "build"
	default:
		return "bindings"
	}
}

// Stage names a pipeline step for diagnostics.
type Stage string

const (
	StageCheckout  Stage = "checkout"
	StageConfigure Stage = "configure"
	StageProbe     Stage = "probe"
	StageExtract   Stage = "extract"
	StageBuild     Stage = "build"
	StageWrite     Stage = "write"
	StageDone      Stage = "done"
)

// Options configure a pipeline run.
type Options struct {
	// CPython is the working copy path.
	CPython string
	// Registry is the artifact output directory.
	Registry string
	// Mode selects bindings, offsets, or interpreter build.
	Mode Mode
	// Configure runs ./configure before probing or extraction. Whether a
	// version needs it is deliberately not auto-detected.
	Configure bool
	// WriteOffsets additionally persists probed offsets to the registry;
	// they always go to stdout for direct embedding.
	WriteOffsets bool
}

// VersionResult records the outcome of one version's pipeline.
type VersionResult struct {
	Label    pyver.Label
	Stage    Stage
	Err      error
	Artifact string
	Duration time.Duration
}

// Failed reports whether this version's pipeline stopped with an error.
func (r VersionResult) Failed() bool { return r.Err != nil }

// Pipeline generates artifacts for a batch of versions.
type Pipeline struct {
	opts   Options
	writer *artifact.Writer
	log    *zap.SugaredLogger

	// Stdout receives probed offset declarations for embedding; defaults
	// to os.Stdout.
	Stdout io.Writer

	// step implementations, replaceable in tests
	checkoutFn  func(path string, label pyver.Label, log *zap.SugaredLogger) error
	configureFn func(ctx context.Context, path string, label pyver.Label, log *zap.SugaredLogger) error
	probeFn     func(ctx context.Context, path string, label pyver.Label) (probe.OffsetPair, error)
	extractFn   func(ctx context.Context, path string, label pyver.Label) (string, error)
	buildFn     func(ctx context.Context, path string, label pyver.Label, log *zap.SugaredLogger) error
}

// New assembles a pipeline from its collaborators.
func New(opts Options, compiler toolchain.Compiler, extractor *extract.Extractor, log *zap.SugaredLogger) *Pipeline {
	prober := probe.New(compiler, log.Named("probe"))
	return &Pipeline{
		opts:        opts,
		writer:      artifact.NewWriter(opts.Registry, log.Named("artifact")),
		log:         log,
		Stdout:      os.Stdout,
		checkoutFn:  checkout.Checkout,
		configureFn: configure.Run,
		probeFn:     prober.Probe,
		extractFn:   extractor.Extract,
		buildFn:     pybuild.Build,
	}
}

// Run processes every label in order. A version's failure never aborts the
// batch; the caller inspects the results for overall status.
func (p *Pipeline) Run(ctx context.Context, labels []pyver.Label) []VersionResult {
	p.log.Infow("Starting batch",
		"mode", p.opts.Mode.String(),
		logger.FieldCount, len(labels),
		logger.FieldRegistry, p.opts.Registry,
	)

	results := make([]VersionResult, 0, len(labels))
	for _, label := range labels {
		res := p.runOne(ctx, label)
		if res.Failed() {
			p.log.Errorw("Version failed",
				logger.FieldVersion, label.String(),
				logger.FieldStage, string(res.Stage),
				logger.FieldError, res.Err,
			)
		}
		results = append(results, res)
	}
	return results
}

// runOne executes the full state machine for a single version. The lease is
// held for the whole pipeline and released on every exit path.
func (p *Pipeline) runOne(ctx context.Context, label pyver.Label) (res VersionResult) {
	start := time.Now()
	res = VersionResult{Label: label, Stage: StageCheckout}
	defer func() { res.Duration = time.Since(start) }()

	lease := checkout.Acquire(p.opts.CPython)
	defer lease.Release()

	if err := p.checkoutFn(p.opts.CPython, label, p.log.Named("checkout")); err != nil {
		res.Err = err
		return res
	}

	if p.opts.Configure && p.opts.Mode != ModeBuild {
		res.Stage = StageConfigure
		if err := p.configureFn(ctx, p.opts.CPython, label, p.log.Named("configure")); err != nil {
			res.Err = err
			return res
		}
	}

	switch p.opts.Mode {
	case ModeBuild:
		res.Stage = StageBuild
		if err := p.buildFn(ctx, p.opts.CPython, label, p.log.Named("build")); err != nil {
			res.Err = err
			return res
		}

	case ModeOffsets:
		res.Stage = StageProbe
		pair, err := p.probeFn(ctx, p.opts.CPython, label)
		if err != nil {
			res.Err = err
			return res
		}
		decls := strings.Join(pair.Declarations(), "\n") + "\n"
		fmt.Fprint(p.Stdout, decls)

		if p.opts.WriteOffsets {
			res.Stage = StageWrite
			path, err := p.writer.Write(label, artifact.KindOffsets, decls)
			if err != nil {
				res.Err = err
				return res
			}
			res.Artifact = path
		}

	default:
		res.Stage = StageExtract
		decls, err := p.extractFn(ctx, p.opts.CPython, label)
		if err != nil {
			res.Err = err
			return res
		}

		res.Stage = StageWrite
		path, err := p.writer.Write(label, artifact.KindBindings, decls)
		if err != nil {
			res.Err = err
			return res
		}
		res.Artifact = path
	}

	res.Stage = StageDone
	return res
}

// AnyFailed reports whether any version in the batch failed; the process
// exit status is derived from it.
func AnyFailed(results []VersionResult) bool {
	for _, r := range results {
		if r.Failed() {
			return true
		}
	}
	return false
}

