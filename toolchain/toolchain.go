// Package toolchain abstracts the native compilers used to build the offset
// probe. Three invocation forms exist in the wild: gcc-style on Linux and
// macOS, plain cc on the BSDs, and cl.exe with MSVC's flag syntax on
// Windows. The compiler is selected once per run from the host platform and
// used for every version in the batch.
package toolchain

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/internal/run"
)

// Compiler compiles a single C translation unit against a set of include
// paths and returns the path of the produced executable.
type Compiler interface {
	// Name identifies the compiler for logs and diagnostics.
	Name() string
	// SourceExt is the extension the probe source should carry (".c", or
	// ".cpp" for cl.exe which infers the language from it).
	SourceExt() string
	// Compile builds source into an executable placed next to it.
	Compile(ctx context.Context, source string, includePaths []string, log *zap.SugaredLogger) (string, error)
}

// Detect returns the compiler for the host platform.
func Detect() Compiler {
	switch runtime.GOOS {
	case "windows":
		return &msvcCL{}
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return &bsdCC{}
	default:
		return &unixCC{cmd: []string{"gcc"}}
	}
}

// FromCommand builds a gcc-style compiler from a shell-quoted override such
// as "ccache gcc" or "clang -O1". An empty override falls back to Detect.
func FromCommand(override string) (Compiler, error) {
	if strings.TrimSpace(override) == "" {
		return Detect(), nil
	}
	argv, err := run.Split(override)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing compiler override %q", override)
	}
	return &unixCC{cmd: argv}, nil
}

// unixCC invokes a gcc-compatible driver: gcc src -I dir... -o out
type unixCC struct {
	cmd []string
}

func (c *unixCC) Name() string      { return c.cmd[0] }
func (c *unixCC) SourceExt() string { return ".c" }

func (c *unixCC) Compile(ctx context.Context, source string, includePaths []string, log *zap.SugaredLogger) (string, error) {
	out := strings.TrimSuffix(source, filepath.Ext(source))
	args := append([]string{}, c.cmd[1:]...)
	args = append(args, source)
	for _, inc := range includePaths {
		args = append(args, "-I", inc)
	}
	args = append(args, "-o", out)

	res, err := run.Command(ctx, filepath.Dir(source), log, c.cmd[0], args...)
	if err != nil {
		return "", compileError(c.Name(), err, res)
	}
	return out, nil
}

// bsdCC invokes the base-system cc: cc src -I dir... -o out
type bsdCC struct{}

func (c *bsdCC) Name() string      { return "cc" }
func (c *bsdCC) SourceExt() string { return ".c" }

func (c *bsdCC) Compile(ctx context.Context, source string, includePaths []string, log *zap.SugaredLogger) (string, error) {
	out := strings.TrimSuffix(source, filepath.Ext(source))
	args := []string{source}
	for _, inc := range includePaths {
		args = append(args, "-I", inc)
	}
	args = append(args, "-o", out)

	res, err := run.Command(ctx, filepath.Dir(source), log, "cc", args...)
	if err != nil {
		return "", compileError("cc", err, res)
	}
	return out, nil
}

// msvcCL invokes cl.exe: cl src /I dir... /Fe:out.exe
// Requires an "x64 Native Tools Command Prompt" environment for 64-bit
// installs, and PCbuild\build.bat to have generated PC\pyconfig.h.
type msvcCL struct{}

func (c *msvcCL) Name() string      { return "cl" }
func (c *msvcCL) SourceExt() string { return ".cpp" }

func (c *msvcCL) Compile(ctx context.Context, source string, includePaths []string, log *zap.SugaredLogger) (string, error) {
	out := strings.TrimSuffix(source, filepath.Ext(source)) + ".exe"
	args := []string{source}
	for _, inc := range includePaths {
		args = append(args, "/I", inc)
	}
	args = append(args, "/Fe:"+out)

	res, err := run.Command(ctx, filepath.Dir(source), log, "cl", args...)
	if err != nil {
		return "", compileError("cl", err, res)
	}
	return out, nil
}

func compileError(name string, err error, res *run.Result) error {
	diag := strings.TrimSpace(res.Stderr)
	if diag == "" {
		// cl.exe writes diagnostics to stdout
		diag = strings.TrimSpace(res.Stdout)
	}
	if diag != "" {
		return errors.Wrapf(errors.ErrProbeCompile, "%s: %v: %s", name, err, diag)
	}
	return errors.Wrapf(errors.ErrProbeCompile, "%s: %v", name, err)
}
