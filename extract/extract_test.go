package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/internal/run"
	"github.com/probelab/pybindgen/pyver"
)

var testLog = zap.NewNop().Sugar()

func writeHeader(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func baseCheckout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeHeader(t, root, "Include/Python.h", "/* python */\n")
	writeHeader(t, root, "Include/frameobject.h", "/* frame */\n")
	writeHeader(t, root, "Objects/dict-common.h", "/* dict */")
	return root
}

func TestDefaultHeaderWhitelistPython2(t *testing.T) {
	root := baseCheckout(t)

	wl, err := DefaultHeaderWhitelist(root, pyver.Label("v2.7.15"))
	require.NoError(t, err)
	require.Len(t, wl, 3)
	for _, h := range wl {
		assert.False(t, h.Internal, "header %s", h.Rel)
	}
}

func TestDefaultHeaderWhitelist37(t *testing.T) {
	root := baseCheckout(t)
	writeHeader(t, root, "Include/internal/pystate.h", "/* state */\n")

	wl, err := DefaultHeaderWhitelist(root, pyver.Label("v3.7.0"))
	require.NoError(t, err)
	require.Len(t, wl, 4)
	assert.Equal(t, "Include/internal/pystate.h", wl[3].Rel)
	assert.True(t, wl[3].Internal)
}

func TestDefaultHeaderWhitelist38Fallback(t *testing.T) {
	root := baseCheckout(t)
	writeHeader(t, root, "Include/internal/pycore_pystate.h", "/* state */\n")
	writeHeader(t, root, "Include/internal/pycore_interp.h", "/* interp */\n")

	wl, err := DefaultHeaderWhitelist(root, pyver.Label("v3.8.0b4"))
	require.NoError(t, err)
	require.Len(t, wl, 5)
	assert.Equal(t, "Include/internal/pycore_pystate.h", wl[3].Rel)
	assert.Equal(t, "Include/internal/pycore_interp.h", wl[4].Rel)
}

func TestDefaultHeaderWhitelistMissingInternal(t *testing.T) {
	root := baseCheckout(t)

	_, err := DefaultHeaderWhitelist(root, pyver.Label("v3.7.0"))
	require.Error(t, err)
	assert.True(t, errors.IsHeaderNotFound(err))
}

func TestConcatenateOrderAndDefine(t *testing.T) {
	root := baseCheckout(t)
	writeHeader(t, root, "Include/internal/pycore_pystate.h", "/* state */\n")
	writeHeader(t, root, "Include/internal/pycore_interp.h", "/* interp */\n")

	wl, err := DefaultHeaderWhitelist(root, pyver.Label("v3.9.5"))
	require.NoError(t, err)

	out, err := Concatenate(root, wl)
	require.NoError(t, err)
	text := string(out)

	// Whitelist order is preserved
	idx := func(s string) int { return strings.Index(text, s) }
	assert.Less(t, idx("/* python */"), idx("/* frame */"))
	assert.Less(t, idx("/* frame */"), idx("/* dict */"))
	assert.Less(t, idx("/* dict */"), idx("/* state */"))
	assert.Less(t, idx("/* state */"), idx("/* interp */"))

	// Core-build define appears exactly once, before the internal headers
	assert.Equal(t, 1, strings.Count(text, "#define Py_BUILD_CORE 1"))
	assert.Less(t, idx("/* dict */"), idx("#define Py_BUILD_CORE 1"))
	assert.Less(t, idx("#define Py_BUILD_CORE 1"), idx("/* state */"))
}

func TestConcatenateMissingHeader(t *testing.T) {
	root := t.TempDir()

	_, err := Concatenate(root, HeaderWhitelist{{Rel: "Include/Python.h"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtract))
	assert.Contains(t, err.Error(), "Include/Python.h")
}

// fakeTool simulates the bindgen binary by writing canned output to the -o
// path.
func fakeTool(t *testing.T, e *Extractor, output string, fail bool) *[][]string {
	t.Helper()
	calls := &[][]string{}
	e.runTool = func(_ context.Context, _ string, name string, args ...string) (*run.Result, error) {
		*calls = append(*calls, append([]string{name}, args...))
		if fail {
			return &run.Result{Stderr: "panicked at something"}, errors.New("exit status 1")
		}
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				require.NoError(t, os.WriteFile(args[i+1], []byte(output), 0o644))
			}
		}
		return &run.Result{}, nil
	}
	return calls
}

func TestExtractInvokesTool(t *testing.T) {
	root := baseCheckout(t)
	writeHeader(t, root, "Include/internal/pystate.h", "/* state */\n")

	e := New("bindgen", testLog)
	calls := fakeTool(t, e, "pub struct PyObject { }\n", false)

	out, err := e.Extract(context.Background(), root, pyver.Label("v3.7.0"))
	require.NoError(t, err)
	assert.Contains(t, out, "PyObject")

	require.Len(t, *calls, 1)
	argv := (*calls)[0]
	assert.Equal(t, "bindgen", argv[0])
	joined := strings.Join(argv, " ")
	assert.Contains(t, joined, "--with-derive-default")
	assert.Contains(t, joined, "--no-layout-tests")
	assert.Contains(t, joined, "--no-doc-comments")
	for _, typ := range TypeWhitelist {
		assert.Contains(t, joined, "--allowlist-type "+typ)
	}
	assert.Contains(t, joined, "-I "+filepath.Join(root, "Include"))
}

func TestExtractToolFailure(t *testing.T) {
	root := baseCheckout(t)
	writeHeader(t, root, "Include/internal/pystate.h", "/* state */\n")

	e := New("bindgen", testLog)
	fakeTool(t, e, "", true)

	_, err := e.Extract(context.Background(), root, pyver.Label("v3.7.0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtract))
	assert.Contains(t, err.Error(), "panicked")
}

func TestExtractEmptyOutput(t *testing.T) {
	root := baseCheckout(t)
	writeHeader(t, root, "Include/internal/pystate.h", "/* state */\n")

	e := New("bindgen", testLog)
	fakeTool(t, e, "\n\n", false)

	_, err := e.Extract(context.Background(), root, pyver.Label("v3.7.0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtract))
}

func TestTypeWhitelistStable(t *testing.T) {
	// The consumer links version artifacts generically; shrinking this
	// list would break older artifacts. Guard the floor.
	assert.GreaterOrEqual(t, len(TypeWhitelist), 20)
	assert.Contains(t, TypeWhitelist, "PyInterpreterState")
	assert.Contains(t, TypeWhitelist, "PyThreadState")
	assert.Contains(t, TypeWhitelist, "PyFrameObject")
}
