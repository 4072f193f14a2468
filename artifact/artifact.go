// Package artifact persists generated declarations into the registry
// directory consumed by the inspector's build.
//
// Every artifact carries the same wrapper: a version comment and a fixed
// suppression block. The consumer includes artifacts for many versions
// uniformly and relies on that shape being identical across all of them.
package artifact

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/pyver"
)

// Kind distinguishes the two artifact flavors of a version.
type Kind int

const (
	// KindBindings is the extracted type declarations file.
	KindBindings Kind = iota
	// KindOffsets is the probed runtime-state offsets file.
	KindOffsets
)

func (k Kind) String() string {
	if k == KindOffsets {
		return "offsets"
	}
	return "bindings"
}

// suppressions is the fixed, ordered warning-suppression block prepended to
// every artifact. Generated code trips these lints on every version; the
// order is part of the wrapper shape and must not change.
var suppressions = []string{
	"#![allow(dead_code)]",
	"#![allow(non_upper_case_globals)]",
	"#![allow(non_camel_case_types)]",
	"#![allow(non_snake_case)]",
	"#![allow(clippy::useless_transmute)]",
	"#![allow(clippy::default_trait_access)]",
	"#![allow(clippy::cast_lossless)]",
	"#![allow(clippy::trivially_copy_pass_by_ref)]",
}

// Filename returns the registry filename for a (label, kind):
// dots become underscores, offsets get a distinguishing suffix.
func Filename(label pyver.Label, kind Kind) string {
	if kind == KindOffsets {
		return label.FileToken() + "_offsets.rs"
	}
	return label.FileToken() + ".rs"
}

// Render produces the full artifact text: version comment, suppression
// block, blank line, payload verbatim.
func Render(label pyver.Label, kind Kind, payload string) string {
	var b strings.Builder
	if kind == KindOffsets {
		b.WriteString("// Generated offsets for python " + label.String() + "\n")
	} else {
		b.WriteString("// Generated bindings for python " + label.String() + "\n")
	}
	for _, s := range suppressions {
		b.WriteString(s + "\n")
	}
	b.WriteString("\n")
	b.WriteString(payload)
	return b.String()
}

// Writer persists artifacts into a registry directory.
type Writer struct {
	Registry string
	log      *zap.SugaredLogger
}

// NewWriter returns a Writer rooted at the registry directory.
func NewWriter(registry string, log *zap.SugaredLogger) *Writer {
	return &Writer{Registry: registry, log: log}
}

// Write renders and persists one artifact, returning its path. The write is
// atomic (temp file plus rename) so a failure part-way never corrupts a
// prior artifact for the same version.
func (w *Writer) Write(label pyver.Label, kind Kind, payload string) (string, error) {
	if err := os.MkdirAll(w.Registry, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrWrite, "creating registry %s: %v", w.Registry, err)
	}

	dest := filepath.Join(w.Registry, Filename(label, kind))
	content := Render(label, kind, payload)

	tmp, err := os.CreateTemp(w.Registry, ".pybindgen-*")
	if err != nil {
		return "", errors.Wrapf(errors.ErrWrite, "creating temp file in %s: %v", w.Registry, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", errors.Wrapf(errors.ErrWrite, "writing %s: %v", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(errors.ErrWrite, "closing %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", errors.Wrapf(errors.ErrWrite, "replacing %s: %v", dest, err)
	}

	w.log.Infow("Wrote artifact",
		logger.FieldVersion, label.String(),
		logger.FieldFile, dest,
	)
	return dest, nil
}
