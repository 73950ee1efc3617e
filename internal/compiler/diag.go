package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/folio/internal/vfs"
)

// Severity distinguishes fatal diagnostics from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Span locates a diagnostic in a source file. Line and Col are 1-based;
// zero means unknown.
type Span struct {
	Path vfs.VirtualPath `json:"path,omitempty"`
	Line int             `json:"line,omitempty"`
	Col  int             `json:"col,omitempty"`
}

// String renders the span as "path:line:col", omitting unknown parts.
func (s Span) String() string {
	switch {
	case s.Path == "":
		return ""
	case s.Line == 0:
		return string(s.Path)
	case s.Col == 0:
		return fmt.Sprintf("%s:%d", s.Path, s.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", s.Path, s.Line, s.Col)
	}
}

// Diagnostic is a single compiler message.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Span     Span     `json:"span"`
	Message  string   `json:"message"`
	Hints    []string `json:"hints,omitempty"`
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	loc := d.Span.String()
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
}

// Errorf creates an error diagnostic.
func Errorf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warningf creates a warning diagnostic.
func Warningf(span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(format, args...)}
}

// WithHint returns a copy of d with an extra hint.
func (d Diagnostic) WithHint(hint string) Diagnostic {
	d.Hints = append(append([]string(nil), d.Hints...), hint)
	return d
}

// Diagnostics is a list of diagnostics. A non-empty list is used as an
// error value for failed compilations.
type Diagnostics []Diagnostic

// Error implements the error interface.
func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no diagnostics"
	case 1:
		return ds[0].String()
	}
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return fmt.Sprintf("%d diagnostics:\n  %s", len(ds), strings.Join(lines, "\n  "))
}

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}
