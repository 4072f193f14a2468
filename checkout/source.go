package checkout

// Source resolution for the CPython working copy. Accepts either a local
// path or a remote URL; URLs are cloned once into a temporary directory so
// ad hoc runs don't require a pre-existing checkout.

import (
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
)

// Source is a resolved working copy, either the caller's own path or a
// temporary clone.
type Source struct {
	// LocalPath is the path to the working copy (original or cloned)
	LocalPath string
	// IsCloned indicates the repo was cloned from a remote URL
	IsCloned bool

	cleanup func()
}

// Cleanup removes any temporary clone created for this source.
// Safe to call multiple times.
func (s *Source) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// IsRepoURL checks if the input looks like a git repository URL.
func IsRepoURL(input string) bool {
	return strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "git://") ||
		strings.HasPrefix(input, "git@")
}

// Resolve turns a path-or-URL into a local working copy. Remote URLs are
// cloned with full history: release tags reach back decades, so a shallow
// clone would miss every label we care about.
func Resolve(input string, log *zap.SugaredLogger) (*Source, error) {
	if IsRepoURL(input) {
		return clone(input, log)
	}

	if !IsGitRepository(input) {
		return nil, errors.Wrapf(errors.ErrCheckout, "not a git working copy: %s", input)
	}
	return &Source{LocalPath: input, cleanup: func() {}}, nil
}

func clone(url string, log *zap.SugaredLogger) (*Source, error) {
	tempDir, err := os.MkdirTemp("", "pybindgen-cpython-*")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCheckout, "creating clone directory: %v", err)
	}

	log.Infow("Cloning interpreter source", "url", url, "destination", tempDir)

	_, err = git.PlainClone(tempDir, false, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, errors.Wrapf(errors.ErrCheckout, "cloning %s: %v", url, err)
	}

	return &Source{
		LocalPath: tempDir,
		IsCloned:  true,
		cleanup:   func() { os.RemoveAll(tempDir) },
	}, nil
}
