package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectReturnsCompiler(t *testing.T) {
	c := Detect()
	require.NotNil(t, c)
	assert.NotEmpty(t, c.Name())
	assert.NotEmpty(t, c.SourceExt())
}

func TestFromCommandEmptyFallsBack(t *testing.T) {
	c, err := FromCommand("")
	require.NoError(t, err)
	assert.Equal(t, Detect().Name(), c.Name())

	c, err = FromCommand("   ")
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestFromCommandOverride(t *testing.T) {
	c, err := FromCommand("ccache gcc")
	require.NoError(t, err)
	assert.Equal(t, "ccache", c.Name())
	assert.Equal(t, ".c", c.SourceExt())
}

func TestFromCommandBadQuoting(t *testing.T) {
	_, err := FromCommand(`gcc "unterminated`)
	assert.Error(t, err)
}

func TestSourceExtensions(t *testing.T) {
	assert.Equal(t, ".c", (&unixCC{cmd: []string{"gcc"}}).SourceExt())
	assert.Equal(t, ".c", (&bsdCC{}).SourceExt())
	// cl.exe infers C++ from the extension; the probe is valid either way
	assert.Equal(t, ".cpp", (&msvcCL{}).SourceExt())
}
