// Package pyver handles CPython release labels.
//
// A Label is the git tag naming one pinned snapshot of the CPython source
// tree ("v3.7.0", "v3.8.0b4"). It is the sole key for every generated
// artifact. Labels are kept opaque for checkout purposes and parsed into
// semver only where version gating is needed (CPython 3.7 moved the runtime
// state into internal headers that require Py_BUILD_CORE).
package pyver

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/probelab/pybindgen/errors"
)

// Label identifies one CPython release tag.
type Label string

// KnownLabels are the release tags the generator is routinely run against.
// The consuming inspector links one artifact per entry. Grow-only: removing
// an entry would orphan a checked-in artifact.
var KnownLabels = []Label{
	"v2.7.15",
	"v3.2.6",
	"v3.3.7",
	"v3.4.8",
	"v3.5.5",
	"v3.6.6",
	"v3.7.0",
	"v3.8.0b4",
	"v3.9.5",
	"v3.10.0",
	"v3.11.0",
}

// CPython tags use PEP 440 style suffixes (a1, b4, rc2), not semver
// prerelease syntax.
var labelPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)(?:\.(\d+))?((?:a|b|rc)\d+)?$`)

func (l Label) String() string { return string(l) }

// FileToken returns the label with dots replaced by underscores, suitable
// for use as a filename stem and as a Rust module name ("v3_7_0").
func (l Label) FileToken() string {
	return strings.ReplaceAll(string(l), ".", "_")
}

// Version parses the label into a semver version, mapping CPython's PEP 440
// suffix to a semver prerelease ("v3.8.0b4" -> "3.8.0-b4").
func (l Label) Version() (*semver.Version, error) {
	m := labelPattern.FindStringSubmatch(string(l))
	if m == nil {
		return nil, errors.Newf("label %q is not a CPython release tag", l)
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	s := m[1] + "." + m[2] + "." + patch
	if m[4] != "" {
		s += "-" + m[4]
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing label %q", l)
	}
	return v, nil
}

// NeedsCoreBuild reports whether this release keeps the runtime state in
// internal headers gated behind Py_BUILD_CORE (3.7 and later).
func (l Label) NeedsCoreBuild() (bool, error) {
	v, err := l.Version()
	if err != nil {
		return false, err
	}
	gate, _ := semver.NewConstraint(">= 3.7.0-a0")
	return gate.Check(v), nil
}

// IsPython3 reports whether the label names a CPython 3.x release.
func (l Label) IsPython3() bool {
	v, err := l.Version()
	if err != nil {
		return strings.HasPrefix(string(l), "v3")
	}
	return v.Major() == 3
}
