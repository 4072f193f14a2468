// Package extract generates Rust declarations for a whitelisted set of
// CPython internal types by concatenating curated headers into one
// translation unit and running bindgen over it.
//
// The header order is a dependency order: later headers use macros and types
// declared by earlier ones. Reordering is a semantic change, not a style
// one.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/internal/run"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/probe"
	"github.com/probelab/pybindgen/pyver"
)

// Header is one entry of the concatenation whitelist. Internal headers only
// expose their structure layouts under Py_BUILD_CORE; the define is injected
// once, before the first internal entry.
type Header struct {
	Rel      string
	Internal bool
}

// HeaderWhitelist is the ordered list of headers forming the bindgen input.
type HeaderWhitelist []Header

// TypeWhitelist is the fixed set of type names declarations are extracted
// for. Grow-only across versions: the consumer links artifacts for many
// versions generically, so a type once exported must stay exported.
var TypeWhitelist = []string{
	"PyInterpreterState",
	"PyFrameObject",
	"PyThreadState",
	"PyCodeObject",
	"PyVarObject",
	"PyBytesObject",
	"PyASCIIObject",
	"PyUnicodeObject",
	"PyCompactUnicodeObject",
	"PyStringObject",
	"PyTupleObject",
	"PyListObject",
	"PyIntObject",
	"PyLongObject",
	"PyFloatObject",
	"PyDictObject",
	"PyDictKeysObject",
	"PyDictKeyEntry",
	"PyObject",
	"PyTypeObject",
}

// pycore_interp.h split out of pycore_pystate.h in 3.8
var interpHeaderGate = mustConstraint(">= 3.8.0-a0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultHeaderWhitelist builds the whitelist for a release. Which internal
// headers exist is decided by explicit version gates, never by scanning the
// tree, so an unexpected layout fails loudly instead of matching the wrong
// file.
func DefaultHeaderWhitelist(root string, label pyver.Label) (HeaderWhitelist, error) {
	wl := HeaderWhitelist{
		{Rel: "Include/Python.h"},
		{Rel: "Include/frameobject.h"},
		{Rel: "Objects/dict-common.h"},
	}

	core, err := label.NeedsCoreBuild()
	if err != nil {
		return nil, err
	}
	if !core {
		return wl, nil
	}

	stateHeader, err := probe.ResolveInternalStateHeader(root)
	if err != nil {
		return nil, err
	}
	wl = append(wl, Header{Rel: stateHeader, Internal: true})

	v, err := label.Version()
	if err != nil {
		return nil, err
	}
	if interpHeaderGate.Check(v) {
		wl = append(wl, Header{Rel: "Include/internal/pycore_interp.h", Internal: true})
	}
	return wl, nil
}

// Concatenate joins the whitelisted headers into a single translation unit,
// injecting the core-build define before the first internal header. A
// missing whitelisted file is an input error, never skipped.
func Concatenate(root string, wl HeaderWhitelist) ([]byte, error) {
	var b strings.Builder
	defined := false

	for _, h := range wl {
		if h.Internal && !defined {
			b.WriteString("#define Py_BUILD_CORE 1\n")
			defined = true
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(h.Rel)))
		if err != nil {
			return nil, errors.NewExtractError("whitelisted header %s: %v", h.Rel, err)
		}
		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return []byte(b.String()), nil
}

// Extractor drives the external bindgen tool.
type Extractor struct {
	// Bindgen is the tool binary name or path.
	Bindgen string
	log     *zap.SugaredLogger

	// runTool executes the extraction tool; replaceable in tests.
	runTool func(ctx context.Context, dir string, name string, args ...string) (*run.Result, error)
}

// New returns an Extractor invoking the given bindgen binary.
func New(bindgen string, log *zap.SugaredLogger) *Extractor {
	e := &Extractor{Bindgen: bindgen, log: log}
	e.runTool = func(ctx context.Context, dir string, name string, args ...string) (*run.Result, error) {
		return run.Command(ctx, dir, log, name, args...)
	}
	return e
}

// Extract produces the raw Rust declarations for one checkout. The
// concatenated input and tool output live in a per-invocation temp directory
// removed on all exit paths; the result is either complete or absent.
func (e *Extractor) Extract(ctx context.Context, root string, label pyver.Label) (string, error) {
	wl, err := DefaultHeaderWhitelist(root, label)
	if err != nil {
		return "", err
	}
	return e.ExtractWithWhitelist(ctx, root, label, wl)
}

// ExtractWithWhitelist is Extract with a caller-supplied header whitelist.
func (e *Extractor) ExtractWithWhitelist(ctx context.Context, root string, label pyver.Label, wl HeaderWhitelist) (string, error) {
	input, err := Concatenate(root, wl)
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "pybindgen-extract-*")
	if err != nil {
		return "", errors.Wrap(err, "creating extraction directory")
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "bindgen_input.h")
	outputPath := filepath.Join(tmpDir, "bindgen_output.rs")
	if err := os.WriteFile(inputPath, input, 0o644); err != nil {
		return "", errors.Wrap(err, "writing bindgen input")
	}

	args := []string{
		inputPath,
		"-o", outputPath,
		"--with-derive-default",
		"--no-layout-tests",
		"--no-doc-comments",
	}
	for _, typ := range TypeWhitelist {
		args = append(args, "--allowlist-type", typ)
	}
	args = append(args,
		"--",
		"-I", root,
		"-I", filepath.Join(root, "Include"),
		"-I", filepath.Join(root, "Include", "internal"),
	)

	e.log.Infow("Extracting bindings",
		logger.FieldVersion, label.String(),
		logger.FieldCount, len(TypeWhitelist),
	)

	res, err := e.runTool(ctx, root, e.Bindgen, args...)
	if err != nil {
		return "", errors.Wrapf(errors.ErrExtract, "%s: %v: %s",
			e.Bindgen, err, strings.TrimSpace(res.Stderr))
	}

	out, err := os.ReadFile(outputPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrExtract, "reading tool output: %v", err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return "", errors.NewExtractError("tool produced empty output")
	}
	return string(out), nil
}
