package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/folio/internal/ir"
)

// ErrNilDocument is returned when asked to export nothing.
var ErrNilDocument = errors.New("export: nil document")

// Exporter converts a document into artifact bytes.
type Exporter interface {
	Export(doc *ir.Document) ([]byte, error)
}

// Text is the plain-text exporter.
//
// Layout:
//
//	%folio 1
//	title: <title>
//	date: <date>
//	pages: <n>
//
//	--- page 1 ---
//	<lines>
//
//	--- page 2 ---
//	<lines>
type Text struct{}

// Export implements Exporter.
func (Text) Export(doc *ir.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%%folio %s\n", ir.FormatVersion)
	fmt.Fprintf(&sb, "title: %s\n", doc.Title)
	fmt.Fprintf(&sb, "date: %s\n", doc.Date)
	fmt.Fprintf(&sb, "pages: %d\n", doc.PageCount())
	for _, p := range doc.Pages {
		sb.WriteString("\n--- page ")
		sb.WriteString(strconv.Itoa(p.Number))
		sb.WriteString(" ---\n")
		for _, line := range p.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return []byte(sb.String()), nil
}

// JSON is the canonical JSON exporter.
type JSON struct{}

// Export implements Exporter.
func (JSON) Export(doc *ir.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	data, err := ir.MarshalCanonical(doc.ToCanonicalMap())
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return data, nil
}

// Names lists the exporters ByName accepts.
var Names = []string{"text", "json"}

// ByName returns the exporter registered under name.
func ByName(name string) (Exporter, error) {
	switch name {
	case "", "text":
		return Text{}, nil
	case "json":
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("unknown exporter %q (want one of %s)", name, strings.Join(Names, ", "))
	}
}
