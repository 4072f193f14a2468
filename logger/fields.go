package logger

// Standard field names for consistent structured logging across pybindgen.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Pipeline identity
	FieldVersion = "version"
	FieldStage   = "stage"

	// Components
	FieldComponent = "component"

	// Filesystem
	FieldPath     = "path"
	FieldFile     = "file"
	FieldRegistry = "registry"

	// Toolchain
	FieldCompiler = "compiler"
	FieldCommand  = "command"
	FieldHeader   = "header"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount = "count"
)
