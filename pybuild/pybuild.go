// Package pybuild compiles a CPython release into a per-version prefix
// inside the working copy. The resulting interpreters are used to exercise
// the inspector against real processes; building them here is a convenience
// mode of the generator, not part of artifact generation.
package pybuild

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/probelab/pybindgen/configure"
	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/internal/run"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/pyver"
)

// Build configures and compiles the checked-out release in an out-of-tree
// build directory, installs it under <path>/<label>, and installs the
// packaging helpers needed for wheel builds.
func Build(ctx context.Context, path string, label pyver.Label, log *zap.SugaredLogger) error {
	if runtime.GOOS == "windows" {
		return errors.WithHint(
			errors.New("interpreter builds are not supported on Windows"),
			`use PCbuild\build.bat from a Native Tools prompt`)
	}

	prefix, err := configure.InstallPrefix(path, label)
	if err != nil {
		return err
	}

	buildDir := filepath.Join(path, "build_"+label.String())
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating build directory %s", buildDir)
	}

	log.Infow("Building interpreter",
		logger.FieldVersion, label.String(),
		logger.FieldPath, buildDir,
	)

	steps := [][]string{
		{"../configure", "--prefix=" + prefix},
		{"make"},
		{"make", "install"},
	}
	for _, argv := range steps {
		res, err := run.Command(ctx, buildDir, log, argv[0], argv[1:]...)
		if err != nil {
			return errors.Wrapf(err, "%s failed for %s: %s", argv[0], label, tail(res.Stderr))
		}
	}

	return installPackagingHelpers(ctx, prefix, label, log)
}

// installPackagingHelpers installs setuptools_rust and wheel into the fresh
// prefix so the interpreter can build the inspector's wheels.
func installPackagingHelpers(ctx context.Context, prefix string, label pyver.Label, log *zap.SugaredLogger) error {
	pip := "pip"
	if label.IsPython3() {
		pip = "pip3"
	}
	pipPath := filepath.Join(prefix, "bin", pip)

	res, err := run.Command(ctx, prefix, log, pipPath, "install", "setuptools_rust", "wheel")
	if err != nil {
		return errors.Wrapf(err, "installing packaging helpers for %s: %s", label, tail(res.Stderr))
	}
	return nil
}

func tail(s string) string {
	const max = 500
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
