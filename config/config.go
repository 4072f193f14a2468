// Package config holds pybindgen's configuration, loaded with Viper from a
// TOML file and PYBINDGEN_* environment variables.
package config

// Config is the generator's configuration.
type Config struct {
	// CPython is the working copy path (or clone URL) of the CPython
	// source repository.
	CPython string `mapstructure:"cpython"`

	// Registry is the directory generated artifacts are written into,
	// inside the consuming inspector's source tree.
	Registry string `mapstructure:"registry"`

	// Bindgen is the declaration-extraction tool binary.
	Bindgen string `mapstructure:"bindgen"`

	// Compiler optionally overrides the probe compiler as a shell-quoted
	// command line, e.g. "ccache gcc".
	Compiler string `mapstructure:"compiler"`
}
