package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/probelab/pybindgen/errors"
	"github.com/probelab/pybindgen/pyver"
)

var testLog = zap.NewNop().Sugar()

func TestFilename(t *testing.T) {
	assert.Equal(t, "v3_7_0.rs", Filename(pyver.Label("v3.7.0"), KindBindings))
	assert.Equal(t, "v3_7_0_offsets.rs", Filename(pyver.Label("v3.7.0"), KindOffsets))
	assert.Equal(t, "v3_8_0b4.rs", Filename(pyver.Label("v3.8.0b4"), KindBindings))
}

func TestRenderShape(t *testing.T) {
	out := Render(pyver.Label("v3.7.0"), KindBindings, "pub struct PyObject {}\n")
	lines := strings.Split(out, "\n")

	assert.Equal(t, "// Generated bindings for python v3.7.0", lines[0])
	assert.Equal(t, "#![allow(dead_code)]", lines[1])
	assert.Equal(t, "#![allow(non_upper_case_globals)]", lines[2])
	assert.Equal(t, "#![allow(non_camel_case_types)]", lines[3])
	assert.Equal(t, "#![allow(non_snake_case)]", lines[4])
	assert.Equal(t, "#![allow(clippy::useless_transmute)]", lines[5])
	assert.Equal(t, "#![allow(clippy::default_trait_access)]", lines[6])
	assert.Equal(t, "#![allow(clippy::cast_lossless)]", lines[7])
	assert.Equal(t, "#![allow(clippy::trivially_copy_pass_by_ref)]", lines[8])
	assert.Equal(t, "", lines[9])
	assert.Equal(t, "pub struct PyObject {}", lines[10])
}

func TestRenderWrapperIdenticalAcrossVersions(t *testing.T) {
	// The consumer includes every version's artifact uniformly; only the
	// version comment may differ.
	a := Render(pyver.Label("v3.7.0"), KindBindings, "x")
	b := Render(pyver.Label("v2.7.15"), KindBindings, "x")

	trim := func(s string) string {
		_, rest, _ := strings.Cut(s, "\n")
		return rest
	}
	assert.Equal(t, trim(a), trim(b))
}

func TestWrite(t *testing.T) {
	registry := t.TempDir()
	w := NewWriter(registry, testLog)

	path, err := w.Write(pyver.Label("v3.7.0"), KindBindings, "pub struct PyObject {}\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(registry, "v3_7_0.rs"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "// Generated bindings for python v3.7.0\n"))
	assert.Contains(t, content, "#![allow(dead_code)]")
	assert.Contains(t, content, "pub struct PyObject {}")

	// No temp droppings left behind
	entries, err := os.ReadDir(registry)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteOverwritesInPlace(t *testing.T) {
	registry := t.TempDir()
	w := NewWriter(registry, testLog)

	_, err := w.Write(pyver.Label("v3.7.0"), KindBindings, "old payload\n")
	require.NoError(t, err)
	path, err := w.Write(pyver.Label("v3.7.0"), KindBindings, "new payload\n")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "new payload")
	assert.NotContains(t, string(data), "old payload")
}

func TestWriteCreatesRegistry(t *testing.T) {
	registry := filepath.Join(t.TempDir(), "src", "python_bindings")
	w := NewWriter(registry, testLog)

	_, err := w.Write(pyver.Label("v3.9.5"), KindOffsets,
		"pub static INTERP_HEAD_OFFSET: usize = 24;\npub static TSTATE_CURRENT: usize = 1392;\n")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(registry, "v3_9_5_offsets.rs"))
}

func TestWriteUnwritableRegistry(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	registry := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.MkdirAll(registry, 0o555))
	w := NewWriter(registry, testLog)

	_, err := w.Write(pyver.Label("v3.7.0"), KindBindings, "x\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWrite))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "bindings", KindBindings.String())
	assert.Equal(t, "offsets", KindOffsets.String())
}
