// Package irdebug centralizes the debug/validation toggles consulted by
// internal/ir and internal/ir/transform. Keeping them
// here, rather than scattered per file, makes "where do we have debug
// logging / validation?" a one-file answer.
package irdebug

// ----- Validations -----
// These must stay enabled by default: spec.md §7 requires Internal-kind
// errors to be raised via assertions in debug builds, and propagated as a
// fatal error otherwise. Disable only for a release build that has already
// been fuzzed/validated extensively.
const (
	// AssertionsEnabled makes internal/ir panic when it raises an
	// Internal-kind ir.Error, instead of returning the error.
	AssertionsEnabled = true
)

// ----- Debug logging -----
// Disabled by default; flip on only when diagnosing a specific method.
const (
	// SSALoggingEnabled is not consulted by any code in this module; setting
	// it has no effect.
	SSALoggingEnabled = false

	// PassLoggingEnabled toggles the per-pass debug log entry that
	// transform.RunPasses writes before running each pass.
	PassLoggingEnabled = false
)
