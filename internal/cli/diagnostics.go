package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/folio/internal/compiler"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	hintColor    = color.New(color.FgCyan)
	locColor     = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
)

func okMark() string   { return okColor.Sprint("✓") }
func failMark() string { return failColor.Sprint("✗") }

// formatDiagnostic renders d as "loc: severity: message" followed by one
// indented line per hint.
func formatDiagnostic(d compiler.Diagnostic) string {
	var sev string
	switch d.Severity {
	case compiler.SeverityError:
		sev = errorColor.Sprint(d.Severity)
	case compiler.SeverityWarning:
		sev = warningColor.Sprint(d.Severity)
	default:
		sev = string(d.Severity)
	}

	var sb strings.Builder
	if loc := d.Span.String(); loc != "" {
		sb.WriteString(locColor.Sprint(loc))
		sb.WriteString(": ")
	}
	sb.WriteString(sev)
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	for _, h := range d.Hints {
		fmt.Fprintf(&sb, "\n  %s: %s", hintColor.Sprint("hint"), h)
	}
	return sb.String()
}

// printDiagnostics writes each diagnostic on its own line, prefixed with
// indent.
func printDiagnostics(w io.Writer, indent string, ds compiler.Diagnostics) {
	for _, d := range ds {
		text := formatDiagnostic(d)
		fmt.Fprintln(w, indent+strings.ReplaceAll(text, "\n", "\n"+indent))
	}
}
