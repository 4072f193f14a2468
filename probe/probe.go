// Package probe computes field offsets inside CPython's _PyRuntimeState by
// compiling and running a small C program against a pinned source checkout.
//
// The runtime struct embeds mutexes whose size varies by OS and
// architecture, so the offsets of interpreters.head and
// gilstate.tstate_current cannot be derived portably from declarations
// alone. Letting the platform's own compiler lay the struct out and asking
// it with offsetof is exact by construction.
package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/internal/run"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/pyver"
	"github.com/probelab/pybindgen/toolchain"
)

// OffsetPair holds the two probed offsets for one (version, platform).
type OffsetPair struct {
	// InterpHead is the byte offset of interpreters.head: the head of the
	// live-interpreter list.
	InterpHead int
	// TStateCurrent is the byte offset of gilstate.tstate_current: the
	// pointer to the currently executing thread state.
	TStateCurrent int
}

// Declarations returns the pair formatted as Rust static declarations,
// byte-identical to what the probe binary prints, ready to embed in the
// consuming inspector.
func (o OffsetPair) Declarations() []string {
	return []string{
		fmt.Sprintf("pub static INTERP_HEAD_OFFSET: usize = %d;", o.InterpHead),
		fmt.Sprintf("pub static TSTATE_CURRENT: usize = %d;", o.TStateCurrent),
	}
}

// internalStateHeaders is the ordered fallback chain for the header that
// declares _PyRuntimeState. CPython renamed it between releases; the list is
// explicit and versioned here rather than inferred from the tree so a stray
// similarly-named header can never be matched by accident.
var internalStateHeaders = []string{
	"Include/internal/pystate.h",
	"Include/internal/pycore_pystate.h",
}

// ResolveInternalStateHeader returns the repo-relative path of the internal
// runtime-state header, trying each known name in order.
func ResolveInternalStateHeader(root string) (string, error) {
	for _, rel := range internalStateHeaders {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err == nil {
			return rel, nil
		}
	}
	return "", errors.Wrapf(errors.ErrHeaderNotFound,
		"no internal runtime-state header under %s (tried %s)",
		root, strings.Join(internalStateHeaders, ", "))
}

// probeSource is the C translation unit computing the offsets. Py_BUILD_CORE
// exposes the internal headers; the printed lines are the final artifact.
const probeSource = `#include <stddef.h>
#include <stdio.h>
#define Py_BUILD_CORE 1
#include "Include/Python.h"
#include "%s"

int main(int argc, const char * argv[]) {
    size_t interp_head = offsetof(_PyRuntimeState, interpreters.head);
    printf("pub static INTERP_HEAD_OFFSET: usize = %%d;\n", (int)interp_head);

    size_t tstate_current = offsetof(_PyRuntimeState, gilstate.tstate_current);
    printf("pub static TSTATE_CURRENT: usize = %%d;\n", (int)tstate_current);
    return 0;
}
`

// Prober builds and runs offset probes with a fixed compiler.
type Prober struct {
	compiler toolchain.Compiler
	log      *zap.SugaredLogger

	// execBinary runs the compiled probe; replaceable in tests.
	execBinary func(ctx context.Context, binary string) (*run.Result, error)
}

// New returns a Prober using the given compiler.
func New(c toolchain.Compiler, log *zap.SugaredLogger) *Prober {
	p := &Prober{compiler: c, log: log}
	p.execBinary = func(ctx context.Context, binary string) (*run.Result, error) {
		return run.Command(ctx, filepath.Dir(binary), log, binary)
	}
	return p
}

// Probe computes the offset pair for the checkout at cpythonPath. The probe
// source and binary live in a per-invocation temp directory removed on every
// exit path. No partial result: any failure aborts with nothing produced.
func (p *Prober) Probe(ctx context.Context, cpythonPath string, label pyver.Label) (OffsetPair, error) {
	var pair OffsetPair

	header, err := ResolveInternalStateHeader(cpythonPath)
	if err != nil {
		return pair, err
	}
	p.log.Debugw("Resolved internal state header",
		logger.FieldVersion, label.String(),
		logger.FieldHeader, header,
	)

	tmpDir, err := os.MkdirTemp("", "pybindgen-probe-*")
	if err != nil {
		return pair, errors.Wrap(err, "creating probe directory")
	}
	defer os.RemoveAll(tmpDir)

	source := filepath.Join(tmpDir, "pyruntime_offsets"+p.compiler.SourceExt())
	program := fmt.Sprintf(probeSource, header)
	if err := os.WriteFile(source, []byte(program), 0o644); err != nil {
		return pair, errors.Wrap(err, "writing probe source")
	}

	includes := []string{cpythonPath, filepath.Join(cpythonPath, "Include")}
	if runtime.GOOS == "windows" {
		// PC\pyconfig.h stands in for the configure-generated one
		includes = append(includes, filepath.Join(cpythonPath, "PC"))
	}

	binary, err := p.compiler.Compile(ctx, source, includes, p.log)
	if err != nil {
		return pair, err
	}

	res, err := p.execBinary(ctx, binary)
	if err != nil {
		return pair, errors.Wrapf(errors.ErrProbeRuntime, "%s: %v", label, err)
	}

	pair, err = ParseOffsets(res.Stdout)
	if err != nil {
		return pair, err
	}

	p.log.Infow("Probed runtime offsets",
		logger.FieldVersion, label.String(),
		"interp_head", pair.InterpHead,
		"tstate_current", pair.TStateCurrent,
	)
	return pair, nil
}

var offsetLine = regexp.MustCompile(`^pub static (INTERP_HEAD_OFFSET|TSTATE_CURRENT): usize = (\d+);$`)

// ParseOffsets reads the probe's stdout back into an OffsetPair. Both lines
// must be present exactly once; anything else means the probe is broken.
func ParseOffsets(output string) (OffsetPair, error) {
	var pair OffsetPair
	seen := map[string]bool{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := offsetLine.FindStringSubmatch(line)
		if m == nil {
			return pair, errors.Wrapf(errors.ErrProbeRuntime, "unexpected probe output line %q", line)
		}
		value, err := strconv.Atoi(m[2])
		if err != nil || value < 0 {
			return pair, errors.Wrapf(errors.ErrProbeRuntime, "bad offset in line %q", line)
		}
		if seen[m[1]] {
			return pair, errors.Wrapf(errors.ErrProbeRuntime, "duplicate offset %s", m[1])
		}
		seen[m[1]] = true

		switch m[1] {
		case "INTERP_HEAD_OFFSET":
			pair.InterpHead = value
		case "TSTATE_CURRENT":
			pair.TStateCurrent = value
		}
	}

	if !seen["INTERP_HEAD_OFFSET"] || !seen["TSTATE_CURRENT"] {
		return pair, errors.Wrap(errors.ErrProbeRuntime, "probe output missing offset lines")
	}
	return pair, nil
}
