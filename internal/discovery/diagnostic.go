// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

// Diagnostic codes.
const (
	CodeSubdirUnreadable = "subdir_unreadable"
	CodeEntrySkipped     = "entry_skipped"
	CodeBrokenSymlink    = "broken_symlink"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "subdir_unreadable").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// Result bundles discovered files with the diagnostics produced while
	// walking.
	Result struct {
		// Files are absolute paths in lexical walk order.
		Files       []string
		Diagnostics []Diagnostic
	}
)
