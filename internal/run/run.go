// Package run wraps child-process invocation for the generation pipeline.
// All toolchain calls (configure, compilers, bindgen, make) are blocking and
// synchronous; the pipeline suspends until the child exits.
package run

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/probelab/pybindgen/logger"
)

// Result holds the captured output of a completed child process.
type Result struct {
	Stdout string
	Stderr string
}

// Command runs name with args in dir, capturing output. The returned Result
// is valid even when err is non-nil so callers can surface compiler
// diagnostics.
func Command(ctx context.Context, dir string, log *zap.SugaredLogger, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugw("Running command",
		logger.FieldCommand, shellquote.Join(append([]string{name}, args...)...),
		logger.FieldPath, dir,
	)

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return res, err
	}
	return res, nil
}

// Split parses a shell-quoted command override like "ccache gcc -O1" into
// an argv slice.
func Split(s string) ([]string, error) {
	return shellquote.Split(s)
}
