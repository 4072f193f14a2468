// Package configure runs CPython's build configuration against a pinned
// checkout. Some releases gate internal structure definitions behind macros
// that only exist in the generated pyconfig.h, so extraction and probing can
// fail with missing-macro errors until this has run. Whether it is needed is
// caller-controlled: auto-detecting it wrongly could silently change struct
// layouts, so the pipeline never infers it.
package configure

import (
	"context"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/internal/run"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/pyver"
)

// Run executes ./configure in the working copy with an install prefix
// derived from (path, label), producing the version-specific pyconfig.h.
func Run(ctx context.Context, path string, label pyver.Label, log *zap.SugaredLogger) error {
	if runtime.GOOS == "windows" {
		// There is no configure script on Windows; PCbuild\build.bat
		// generates PC\pyconfig.h instead.
		return errors.WithHint(
			errors.New("configure is not available on Windows"),
			`run PCbuild\build.bat in the working copy first`)
	}

	prefix, err := InstallPrefix(path, label)
	if err != nil {
		return err
	}

	log.Infow("Running configure",
		logger.FieldVersion, label.String(),
		logger.FieldPath, path,
	)

	res, err := run.Command(ctx, path, log, "./configure", "--prefix="+prefix)
	if err != nil {
		return errors.Wrapf(err, "configure failed for %s: %s", label, tail(res.Stderr))
	}
	return nil
}

// InstallPrefix returns the absolute per-version install prefix inside the
// working copy. Shared with the interpreter build mode so configure and
// `make install` agree on the destination.
func InstallPrefix(path string, label pyver.Label) (string, error) {
	abs, err := filepath.Abs(filepath.Join(path, label.String()))
	if err != nil {
		return "", errors.Wrapf(err, "resolving install prefix under %s", path)
	}
	return abs, nil
}

// tail trims captured stderr to its last few lines; configure output is long
// and only the end carries the failure.
func tail(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
