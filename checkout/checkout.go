// Package checkout pins a CPython working copy to a release tag.
//
// The working copy is shared mutable state: every downstream step (configure,
// offset probe, binding extraction) reads the tree that the last checkout
// left behind. Callers must hold the per-path Lease for the whole pipeline
// of one version. Serialization across processes is the caller's
// responsibility; no file locking is done here.
package checkout

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/logger"
	"github.com/probelab/pybindgen/pyver"
)

// Checkout switches the working copy at path to the given release tag.
// The tree is checked out with force: generated files from a previous
// configure run are expendable.
func Checkout(path string, label pyver.Label, log *zap.SugaredLogger) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCheckout, "%s is not a git working copy: %v", path, err)
	}

	hash, err := resolveTag(repo, label)
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.Wrapf(errors.ErrCheckout, "opening worktree at %s: %v", path, err)
	}

	log.Infow("Checking out release tag",
		logger.FieldVersion, label.String(),
		logger.FieldPath, path,
	)

	err = wt.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	})
	if err != nil {
		return errors.WrapCheckout(err, "checking out "+label.String())
	}
	return nil
}

// resolveTag resolves a release label to a commit hash. Annotated and
// lightweight tags both occur in the CPython repository.
func resolveTag(repo *git.Repository, label pyver.Label) (*plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(label.String()))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCheckout,
			"tag %s not found in repository: %v", label, err)
	}

	// ResolveRevision returns the tag object hash for annotated tags;
	// peel to the commit it points at.
	if tag, terr := repo.TagObject(*hash); terr == nil {
		commit, cerr := tag.Commit()
		if cerr != nil {
			return nil, errors.Wrapf(errors.ErrCheckout,
				"peeling tag %s: %v", label, cerr)
		}
		h := commit.Hash
		return &h, nil
	}
	return hash, nil
}

// IsGitRepository reports whether path looks like a git working copy.
func IsGitRepository(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	// .git is a directory in a normal working copy, a file in a worktree
	return info.IsDir() || info.Mode().IsRegular()
}
