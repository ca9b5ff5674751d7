// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
)

// ActionableError is an error enriched with context for user-facing
// messages: the operation that failed, the resource involved, and
// suggestions for fixing the problem.
//
// Use the Context builder for construction:
//
//	err := issue.NewContext().
//		WithOperation("locate game directory").
//		WithResource(hint).
//		WithSuggestion("Pass the correct path with --game-dir").
//		Wrap(cause)
type ActionableError struct {
	// Operation describes what was being attempted (e.g., "fetch manifest").
	Operation string

	// Resource identifies the file, path, or URL involved (optional).
	Resource string

	// Suggestions are remediation hints shown to the user (optional).
	Suggestions []string

	// Cause is the underlying error (optional).
	Cause error
}

// Context is a fluent builder for ActionableError values.
type Context struct {
	operation   string
	resource    string
	suggestions []string
}

// NewContext creates an empty Context builder.
func NewContext() *Context {
	return &Context{}
}

// WithOperation sets the operation description.
func (c *Context) WithOperation(op string) *Context {
	c.operation = op
	return c
}

// WithResource sets the resource involved.
func (c *Context) WithResource(res string) *Context {
	c.resource = res
	return c
}

// WithSuggestion appends a remediation suggestion.
func (c *Context) WithSuggestion(s string) *Context {
	c.suggestions = append(c.suggestions, s)
	return c
}

// Wrap builds the ActionableError around cause. A nil cause is allowed
// when the context itself is the whole story.
func (c *Context) Wrap(cause error) *ActionableError {
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       cause,
	}
}

// Error returns the concise, single-line form.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the multi-line user-facing form. In verbose mode the
// full cause chain is included; otherwise only the headline and the
// suggestions are shown.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder

	b.WriteString("Failed to ")
	b.WriteString(e.Operation)
	if e.Resource != "" {
		b.WriteString(" (")
		b.WriteString(e.Resource)
		b.WriteString(")")
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nCause: ")
		b.WriteString(e.Cause.Error())
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}

	return b.String()
}
