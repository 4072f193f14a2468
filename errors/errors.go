// Package errors provides error handling for pybindgen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing diagnostics
//
// Usage:
//
//	// Wrap with context
//	if err := compile(src); err != nil {
//	    return errors.Wrap(err, "compiling offset probe")
//	}
//
//	// Tag with a pipeline-stage sentinel
//	return errors.Wrapf(errors.ErrProbeCompile, "cc exited: %v", err)
//
//	// Check errors
//	if errors.Is(err, errors.ErrCheckout) {
//	    // bad label or working copy
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf

	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the generation pipeline. Every step failure wraps
// exactly one of these so the driver can name the failing stage with
// errors.Is() without string matching.
var (
	// ErrCheckout indicates the version label does not exist in the
	// repository or the working copy is not a valid checkout.
	ErrCheckout = New("checkout failed")

	// ErrProbeCompile indicates the native toolchain failed to compile
	// the offset probe.
	ErrProbeCompile = New("probe compile failed")

	// ErrProbeRuntime indicates the compiled probe exited nonzero or
	// produced unparseable output.
	ErrProbeRuntime = New("probe run failed")

	// ErrHeaderNotFound indicates the internal runtime-state header is
	// missing under all known names.
	ErrHeaderNotFound = New("internal header not found")

	// ErrExtract indicates a whitelisted header is missing or the
	// extraction tool failed.
	ErrExtract = New("binding extraction failed")

	// ErrWrite indicates the artifact destination is not writable.
	ErrWrite = New("artifact write failed")
)

// IsCheckoutError checks if an error is or wraps ErrCheckout.
func IsCheckoutError(err error) bool {
	return err != nil && Is(err, ErrCheckout)
}

// IsHeaderNotFound checks if an error is or wraps ErrHeaderNotFound.
func IsHeaderNotFound(err error) bool {
	return err != nil && Is(err, ErrHeaderNotFound)
}

// WrapCheckout wraps an error as a checkout failure with context.
func WrapCheckout(err error, context string) error {
	return Wrap(Wrap(ErrCheckout, err.Error()), context)
}

// NewExtractError creates an extraction error with a formatted message.
func NewExtractError(format string, args ...interface{}) error {
	return Wrap(ErrExtract, Newf(format, args...).Error())
}
