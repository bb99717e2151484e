// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a user-facing failure: what modhost was doing, which
	// path or module it was doing it to, and what the user can try next.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource("./config.cue").
	//		WithSuggestion("Run 'modhost config init' to create one").
	//		WithIssue(issue.ConfigLoadFailedId).
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "open module".
		Operation string
		// Resource is the file, directory or module involved.
		Resource string
		// Suggestions are remedies, one per line.
		Suggestions []string
		// Cause is the wrapped error.
		Cause error
		// Issue links the error to a catalog page.
		Issue Id
	}

	// ErrorContext accumulates the fields of an ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext creates an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the message followed by suggestions. Verbose output adds
// the numbered error chain; otherwise a linked catalog page is only named.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}

	if !verbose {
		if e.Issue != 0 {
			fmt.Fprintf(&b, "\n\n(issue #%d; rerun with --verbose for details)", e.Issue)
		}
		return b.String()
	}

	if e.Cause != nil {
		b.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", depth, err)
			depth++
		}
	}
	return b.String()
}

// Page returns the catalog entry linked to the error, or nil.
func (e *ActionableError) Page() *Issue {
	if e.Issue == 0 {
		return nil
	}
	return Get(e.Issue)
}

// HasSuggestions reports whether any remedy is attached.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// WithOperation sets the operation, e.g. "scan module dependencies".
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

// WithResource sets the path or module name involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends a remedy.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

// WithIssue links a catalog page.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.Issue = id
	return c
}

// Wrap sets the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the error, or nil when no operation was set. The builder
// may be reused; later calls do not affect errors already built.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	out := c.err
	out.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &out
}

// BuildError is Build typed as error, so a missing operation yields a true
// nil interface.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
