package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.CPython, filepath.Join("code", "cpython"))
	assert.Equal(t, filepath.Join("src", "python_bindings"), cfg.Registry)
	assert.Equal(t, "bindgen", cfg.Bindgen)
	assert.Empty(t, cfg.Compiler)
}

func TestLoadCaches(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pybindgen.toml")
	content := `
cpython = "/srv/cpython"
registry = "out/bindings"
bindgen = "/opt/cargo/bin/bindgen"
compiler = "ccache gcc"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/cpython", cfg.CPython)
	assert.Equal(t, "out/bindings", cfg.Registry)
	assert.Equal(t, "/opt/cargo/bin/bindgen", cfg.Bindgen)
	assert.Equal(t, "ccache gcc", cfg.Compiler)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("PYBINDGEN_BINDGEN", "bindgen-0.59")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bindgen-0.59", cfg.Bindgen)
}
